package sectiontype

// Builtins returns the section types shipped with the renderer.
func Builtins() []Definition {
	return []Definition{
		// legacy: data is [{name, value}]
		{
			Name: "bar_chart", Category: Legacy, Renderer: "BarChartSection",
			Description:     "compare magnitudes across categories",
			RequiredFields:  []string{"type", "title", "data"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        4,
			Example: map[string]any{
				"type": "bar_chart", "title": "Installed capacity by source (GW)",
				"content": "Solar overtook wind in 2023.",
				"data": []any{
					map[string]any{"name": "Solar", "value": 1419},
					map[string]any{"name": "Wind", "value": 1017},
					map[string]any{"name": "Hydro", "value": 1392},
					map[string]any{"name": "Nuclear", "value": 371},
				},
			},
		},
		{
			Name: "pie_chart", Category: Legacy, Renderer: "PieChartSection",
			Description:     "show parts of a whole that sum to 100%",
			RequiredFields:  []string{"type", "title", "data"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        3,
			Example: map[string]any{
				"type": "pie_chart", "title": "Global freshwater withdrawals",
				"data": []any{
					map[string]any{"name": "Agriculture", "value": 70},
					map[string]any{"name": "Industry", "value": 19},
					map[string]any{"name": "Municipal", "value": 11},
				},
			},
		},
		{
			Name: "line_chart", Category: Legacy, Renderer: "LineChartSection",
			Description:     "show a trend over ordered time points",
			RequiredFields:  []string{"type", "title", "data"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        5,
			Example: map[string]any{
				"type": "line_chart", "title": "Median home price (k USD)",
				"data": []any{
					map[string]any{"name": "2019", "value": 313},
					map[string]any{"name": "2020", "value": 329},
					map[string]any{"name": "2021", "value": 369},
					map[string]any{"name": "2022", "value": 440},
					map[string]any{"name": "2023", "value": 431},
				},
			},
		},
		{
			Name: "area_chart", Category: Legacy, Renderer: "AreaChartSection",
			Description:     "show cumulative volume over time",
			RequiredFields:  []string{"type", "title", "data"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        5,
		},

		// flat: top-level fields
		{
			Name: "text", Category: Flat, Renderer: "TextSection",
			Description:     "a short narrative paragraph",
			RequiredFields:  []string{"type", "title", "content"},
			ForbiddenFields: []string{"data", "steps", "comparisonItems"},
			Example: map[string]any{
				"type": "text", "title": "Why it matters",
				"content": "Battery prices fell 89% in a decade, making storage the missing piece of renewable grids.",
			},
		},
		{
			Name: "stat", Category: Flat, Renderer: "StatSection",
			Description:     "highlight a single headline number",
			RequiredFields:  []string{"type", "statValue", "statLabel"},
			OptionalFields:  []string{"title", "content", "statTrend"},
			ForbiddenFields: []string{"data", "steps", "comparisonItems"},
			Example: map[string]any{
				"type": "stat", "title": "Coverage",
				"statValue": "8.1B", "statLabel": "people on Earth in 2024", "statTrend": "up",
			},
		},
		{
			Name: "process", Category: Flat, Renderer: "ProcessSection",
			Description:     "ordered steps of a procedure",
			RequiredFields:  []string{"type", "title", "steps"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"data", "comparisonItems", "statValue"},
			MinItems:        3,
			Example: map[string]any{
				"type": "process", "title": "How a bill becomes law",
				"steps": []any{
					map[string]any{"step": 1, "title": "Introduction", "description": "A member files the bill."},
					map[string]any{"step": 2, "title": "Committee", "description": "Hearings and markup."},
					map[string]any{"step": 3, "title": "Floor vote", "description": "Both chambers must pass it."},
					map[string]any{"step": 4, "title": "Signature", "description": "The executive signs or vetoes."},
				},
			},
		},
		{
			Name: "comparison", Category: Flat, Renderer: "ComparisonSection",
			Description:     "contrast two options attribute by attribute",
			RequiredFields:  []string{"type", "title", "comparisonItems"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"data", "steps", "statValue"},
			MinItems:        3,
			Example: map[string]any{
				"type": "comparison", "title": "Heat pump vs gas furnace",
				"comparisonItems": []any{
					map[string]any{"label": "Efficiency", "left": "300%", "right": "95%"},
					map[string]any{"label": "Upfront cost", "left": "High", "right": "Moderate"},
					map[string]any{"label": "Emissions", "left": "Grid dependent", "right": "Direct CO2"},
				},
			},
		},
		{
			Name: "quote", Category: Flat, Renderer: "QuoteSection",
			Description:     "a notable quotation with attribution",
			RequiredFields:  []string{"type", "content", "statLabel"},
			OptionalFields:  []string{"title"},
			ForbiddenFields: []string{"data", "steps", "comparisonItems"},
		},

		// nested: data is an object
		{
			Name: "timeline", Category: Nested, Renderer: "TimelineSection",
			Description:     "dated events in chronological order",
			RequiredFields:  []string{"type", "title", "data"},
			OptionalFields:  []string{"content"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        4,
			Example: map[string]any{
				"type": "timeline", "title": "Milestones of spaceflight",
				"data": map[string]any{"items": []any{
					map[string]any{"date": "1957", "title": "Sputnik 1", "description": "First artificial satellite."},
					map[string]any{"date": "1961", "title": "Vostok 1", "description": "First human in orbit."},
					map[string]any{"date": "1969", "title": "Apollo 11", "description": "First crewed Moon landing."},
					map[string]any{"date": "1998", "title": "ISS", "description": "First module launched."},
				}},
			},
		},
		{
			Name: "table", Category: Nested, Renderer: "TableSection",
			Description:     "a grid of facts with named columns",
			RequiredFields:  []string{"type", "title", "data"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        3,
			Example: map[string]any{
				"type": "table", "title": "Largest economies (2023)",
				"data": map[string]any{
					"headers": []any{"Country", "GDP (T USD)", "Growth"},
					"rows": []any{
						[]any{"United States", "27.4", "2.5%"},
						[]any{"China", "17.7", "5.2%"},
						[]any{"Germany", "4.5", "-0.3%"},
					},
				},
			},
		},
		{
			Name: "swot", Category: Nested, Renderer: "SwotSection",
			Description:     "strengths, weaknesses, opportunities and threats",
			RequiredFields:  []string{"type", "title", "data"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        2,
			Example: map[string]any{
				"type": "swot", "title": "Electric vehicles",
				"data": map[string]any{
					"strengths":     []any{"Low running cost", "Instant torque"},
					"weaknesses":    []any{"Battery cost", "Charging time"},
					"opportunities": []any{"Grid storage", "Falling cell prices"},
					"threats":       []any{"Lithium supply", "Subsidy cuts"},
				},
			},
		},
		{
			Name: "kpi_grid", Category: Nested, Renderer: "KpiGridSection",
			Description:     "several headline metrics side by side",
			RequiredFields:  []string{"type", "title", "data"},
			ForbiddenFields: []string{"steps", "comparisonItems"},
			MinItems:        3,
			Example: map[string]any{
				"type": "kpi_grid", "title": "Company at a glance",
				"data": map[string]any{"items": []any{
					map[string]any{"label": "Revenue", "value": "$4.2B", "trend": "up"},
					map[string]any{"label": "Employees", "value": "12,400", "trend": "neutral"},
					map[string]any{"label": "Churn", "value": "3.1%", "trend": "down"},
				}},
			},
		},
		{
			Name: "funnel", Category: Nested, Renderer: "FunnelSection",
			Description:     "a narrowing sequence of stages with counts",
			RequiredFields:  []string{"type", "title", "data"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        3,
		},
		{
			Name: "pros_cons", Category: Nested, Renderer: "ProsConsSection",
			Description:     "arguments for and against",
			RequiredFields:  []string{"type", "title", "data"},
			ForbiddenFields: []string{"steps", "comparisonItems", "statValue"},
			MinItems:        2,
		},
	}
}
