package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"infographic/internal/report"
)

const keyPrefix = "history/"

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store keeps one JSON object per item. Keys embed the inverted
// timestamp so the bucket's lexical listing is newest first.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Append(ctx context.Context, item report.HistoryItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode history item: %w", err)
	}
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}

	key := objectKey(item)
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	survivors := []string{key}
	for _, k := range keys {
		if k == key {
			continue
		}
		if id, _, ok := parseObjectKey(k); ok && id == item.ID {
			if err := s.remove(ctx, k); err != nil {
				return err
			}
			continue
		}
		survivors = append(survivors, k)
	}
	slices.Sort(survivors)
	for _, k := range survivors[min(len(survivors), report.MaxHistory):] {
		if err := s.remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Store) List(ctx context.Context, limit int) ([]report.HistoryItem, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	if n := clampLimit(limit); len(keys) > n {
		keys = keys[:n]
	}
	out := make([]report.HistoryItem, 0, len(keys))
	for _, k := range keys {
		item, err := s.read(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *S3Store) Get(ctx context.Context, id string) (report.HistoryItem, error) {
	key, err := s.find(ctx, id)
	if err != nil {
		return report.HistoryItem{}, err
	}
	return s.read(ctx, key)
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	key, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, key)
}

func (s *S3Store) Clear(ctx context.Context) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	keys, err := s.keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Store) remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) find(ctx context.Context, id string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	id = strings.TrimSpace(id)
	keys, err := s.keys(ctx)
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if kid, _, ok := parseObjectKey(k); ok && kid == id {
			return k, nil
		}
	}
	return "", ErrNotFound
}

// keys lists every history object key, newest first.
func (s *S3Store) keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, report.MaxHistory)
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    keyPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key != "" {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

func (s *S3Store) read(ctx context.Context, key string) (report.HistoryItem, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return report.HistoryItem{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return report.HistoryItem{}, ErrNotFound
		}
		return report.HistoryItem{}, err
	}
	var item report.HistoryItem
	if err := json.Unmarshal(data, &item); err != nil {
		return report.HistoryItem{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return item, nil
}

func objectKey(item report.HistoryItem) string {
	return fmt.Sprintf("%s%019d-%s.json", keyPrefix, math.MaxInt64-item.Timestamp, item.ID)
}

func parseObjectKey(key string) (id string, timestamp int64, ok bool) {
	name, found := strings.CutPrefix(key, keyPrefix)
	if !found {
		return "", 0, false
	}
	name, found = strings.CutSuffix(name, ".json")
	if !found {
		return "", 0, false
	}
	inv, id, found := strings.Cut(name, "-")
	if !found || id == "" {
		return "", 0, false
	}
	n, err := strconv.ParseInt(inv, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return id, math.MaxInt64 - n, true
}
