package oss

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/inbox_premium_server/config"
)

// Client 归档对象存储
type Client struct {
	bucket        *oss.Bucket
	archivePrefix string
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{
		bucket:        bucket,
		archivePrefix: cfg.ArchivePrefix,
	}, nil
}

// UploadArchive 上传 webhook 事件归档（JSON Lines）
func (c *Client) UploadArchive(day time.Time, data []byte) (string, error) {
	objectKey := ArchiveObjectKey(c.archivePrefix, day, time.Now())

	err := c.bucket.PutObject(objectKey, bytes.NewReader(data), oss.ContentType("application/x-ndjson"))
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	return objectKey, nil
}

// ArchiveObjectKey 生成归档对象路径: {prefix}/2024/01/02/{unixnano}.jsonl
func ArchiveObjectKey(prefix string, day, now time.Time) string {
	if prefix == "" {
		prefix = "webhooks"
	}
	day = day.UTC()
	return path.Join(prefix,
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", int(day.Month())),
		fmt.Sprintf("%02d", day.Day()),
		fmt.Sprintf("%d.jsonl", now.UnixNano()),
	)
}
