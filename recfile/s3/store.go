// Package s3 provides S3-backed handles for record files.
//
// Open returns a seekable handle that serves reads with HTTP range requests,
// so a recfile read session can skip rows and fields without downloading the
// whole object. Create returns a writer that spools to a temp file and
// uploads the object with a single PutObject on Close.
//
// Works with AWS S3 and S3-compatible stores (MinIO, LocalStack, R2).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// defaultBlockSize is the range request size used to refill the read window.
const defaultBlockSize = 1 << 20 // 1MiB

// Error sentinels.
var (
	// ErrNotFound indicates the object does not exist.
	ErrNotFound = errors.New("s3: object not found")

	// ErrInvalidURI indicates a malformed s3:// URI.
	ErrInvalidURI = errors.New("s3: invalid URI")

	// ErrClosed indicates use of a closed handle.
	ErrClosed = errors.New("s3: handle closed")
)

// API defines the subset of the S3 client interface used by this package.
// This enables testing with mock implementations.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// ParseURI splits "s3://bucket/key" into bucket and key.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q lacks the s3:// scheme", ErrInvalidURI, uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidURI, uri)
	}
	return bucket, key, nil
}

// IsURI reports whether s names an S3 object.
func IsURI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// -----------------------------------------------------------------------------
// Read handle
// -----------------------------------------------------------------------------

// OpenOption configures Open.
type OpenOption func(*Object)

// WithBlockSize sets the size of each range request. Default: 1MiB.
func WithBlockSize(n int) OpenOption {
	return func(o *Object) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// Object is a read-only, seekable view of an S3 object.
//
// Read and Seek serve a sequential cursor from a window filled by range
// requests. ReadAt bypasses the window and is safe for concurrent use; the
// cursor methods are not.
type Object struct {
	client API
	bucket string
	key    string
	ctx    context.Context
	size   int64

	pos       int64
	window    []byte
	windowOff int64
	blockSize int

	gets   int
	closed bool
}

// Open verifies the object exists and returns a handle positioned at 0.
// Returns ErrNotFound if the object does not exist.
func Open(ctx context.Context, client API, bucket, key string, opts ...OpenOption) (*Object, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, bucket, key)
		}
		return nil, fmt.Errorf("s3: head object: %w", err)
	}

	o := &Object{
		client:    client,
		bucket:    bucket,
		key:       key,
		ctx:       ctx,
		size:      aws.ToInt64(out.ContentLength),
		blockSize: defaultBlockSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Size returns the object length in bytes.
func (o *Object) Size() int64 { return o.size }

// Requests returns the number of range requests issued so far.
func (o *Object) Requests() int { return o.gets }

// ReadAt implements io.ReaderAt with a single range request.
func (o *Object) ReadAt(p []byte, off int64) (int, error) {
	if o.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, errors.New("s3: negative offset")
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= o.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	out, err := o.client.GetObject(o.ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	o.gets++
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("s3: range read: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	n, err := io.ReadFull(out.Body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// Read implements io.Reader from the current position.
func (o *Object) Read(p []byte) (int, error) {
	if o.closed {
		return 0, ErrClosed
	}
	if o.pos >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Large reads skip the window.
	if len(p) >= o.blockSize {
		n, err := o.ReadAt(p, o.pos)
		o.pos += int64(n)
		if errors.Is(err, io.EOF) && n > 0 {
			err = nil
		}
		return n, err
	}

	if o.pos < o.windowOff || o.pos >= o.windowOff+int64(len(o.window)) {
		if err := o.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, o.window[o.pos-o.windowOff:])
	o.pos += int64(n)
	return n, nil
}

// fill loads the window starting at the current position.
func (o *Object) fill() error {
	size := int64(o.blockSize)
	if remaining := o.size - o.pos; remaining < size {
		size = remaining
	}
	if cap(o.window) < int(size) {
		o.window = make([]byte, size)
	}
	o.window = o.window[:size]
	n, err := o.ReadAt(o.window, o.pos)
	o.window = o.window[:n]
	o.windowOff = o.pos
	if n > 0 {
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	return err
}

// Seek implements io.Seeker. Seeking past the end is allowed; reads there
// return io.EOF.
func (o *Object) Seek(offset int64, whence int) (int64, error) {
	if o.closed {
		return 0, ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = o.pos + offset
	case io.SeekEnd:
		abs = o.size + offset
	default:
		return 0, fmt.Errorf("s3: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("s3: negative position %d", abs)
	}
	o.pos = abs
	return abs, nil
}

// Close releases the read window. Close is idempotent.
func (o *Object) Close() error {
	o.closed = true
	o.window = nil
	return nil
}

// -----------------------------------------------------------------------------
// Write handle
// -----------------------------------------------------------------------------

// createTemp is the temp file factory for upload spooling.
var createTemp = func() (*os.File, error) { return os.CreateTemp("", "recfile-s3-*") }

// Upload spools writes to a temp file and uploads them on Close.
type Upload struct {
	client API
	bucket string
	key    string
	ctx    context.Context

	file   *os.File
	size   int64
	closed bool
}

// Create returns a writer for a new object. Nothing is uploaded until Close.
func Create(ctx context.Context, client API, bucket, key string) (*Upload, error) {
	if client == nil {
		return nil, errors.New("s3: client is required")
	}
	f, err := createTemp()
	if err != nil {
		return nil, fmt.Errorf("s3: creating temp file: %w", err)
	}
	return &Upload{client: client, bucket: bucket, key: key, ctx: ctx, file: f}, nil
}

// Write implements io.Writer.
func (u *Upload) Write(p []byte) (int, error) {
	if u.closed {
		return 0, ErrClosed
	}
	n, err := u.file.Write(p)
	u.size += int64(n)
	return n, err
}

// Close uploads the spooled bytes with PutObject. The temp file is removed
// whether or not the upload succeeds. Close is idempotent.
func (u *Upload) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	defer u.discard()

	if _, err := u.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("s3: seeking temp file: %w", err)
	}
	_, err := u.client.PutObject(u.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(u.key),
		Body:          u.file,
		ContentLength: aws.Int64(u.size),
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	return nil
}

// Abort drops the spooled bytes without uploading.
func (u *Upload) Abort() {
	if u.closed {
		return
	}
	u.closed = true
	u.discard()
}

func (u *Upload) discard() {
	_ = u.file.Close()
	_ = os.Remove(u.file.Name())
}

// isNotFound checks if an error indicates the object was not found.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey" || code == "404"
	}
	return false
}
