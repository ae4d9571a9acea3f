package oss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchiveObjectKey(t *testing.T) {
	day := time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC)
	now := time.Unix(1700000000, 5)

	assert.Equal(t, "webhooks/2024/03/07/1700000000000000005.jsonl", ArchiveObjectKey("webhooks", day, now))
	assert.Equal(t, "archive/lemon/2024/03/07/1700000000000000005.jsonl", ArchiveObjectKey("archive/lemon", day, now))
}

func TestArchiveObjectKey_DefaultPrefix(t *testing.T) {
	day := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	now := time.Unix(0, 42)

	assert.Equal(t, "webhooks/2023/12/31/42.jsonl", ArchiveObjectKey("", day, now))
}

func TestArchiveObjectKey_UsesUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 本地 1 月 1 日 02:00 = UTC 前一天 18:00
	day := time.Date(2024, 1, 1, 2, 0, 0, 0, loc)

	assert.Equal(t, "webhooks/2023/12/31/1.jsonl", ArchiveObjectKey("webhooks", day, time.Unix(0, 1)))
}
