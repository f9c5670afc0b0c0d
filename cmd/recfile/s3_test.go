package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	recs3 "github.com/justapithecus/recfile/recfile/s3"
)

// memS3 is an in-memory bucket serving whole and ranged GETs.
type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemS3() *memS3 { return &memS3{objects: make(map[string][]byte)} }

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	if in.Range != nil {
		var start, end int64
		if _, err := fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-%d", &start, &end); err != nil {
			return nil, err
		}
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		data = data[start : end+1]
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

// useMemS3 points the CLI at client for the duration of the test.
func useMemS3(t *testing.T, client *memS3) {
	t.Helper()
	prev := newS3Client
	newS3Client = func(context.Context, Config) (recs3.API, error) { return client, nil }
	t.Cleanup(func() { newS3Client = prev })
}

func TestRun_S3RoundTrip(t *testing.T) {
	dir := t.TempDir()
	input, layout := writeFixture(t, dir, 5)

	mem := newMemS3()
	for key, path := range map[string]string{"data/star.bin": input, "data/star.json": layout} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		mem.objects[key] = data
	}
	useMemS3(t, mem)

	c := testConfig("s3://data/star.bin", "s3://data/star.json", "s3://data/out/star.jsonl")
	c.Format = "jsonl"
	c.Select = "0:5"
	c.Fields = "id"
	c.OutLayout = filepath.Join(dir, "out.json")
	if err := run(context.Background(), c, io.Discard, quietLogger()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	out, ok := mem.objects["data/out/star.jsonl"]
	if !ok {
		t.Fatal("output object was not uploaded")
	}
	lines := readLines(t, bytes.NewReader(out))
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if lines[4]["id"] != float64(104) {
		t.Errorf("last id = %v, want 104", lines[4]["id"])
	}
}

func TestRun_S3MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, layout := writeFixture(t, dir, 1)
	useMemS3(t, newMemS3())

	c := testConfig("s3://data/missing.bin", layout, "-")
	err := run(context.Background(), c, io.Discard, quietLogger())
	if !errors.Is(err, recs3.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
