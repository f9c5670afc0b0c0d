package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/justapithecus/recfile/recfile"
	recs3 "github.com/justapithecus/recfile/recfile/s3"
)

// newS3Client builds the client used for s3:// paths. Tests replace it.
var newS3Client = func(ctx context.Context, c Config) (recs3.API, error) {
	return recs3.NewClient(ctx, recs3.ClientConfig{
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		UsePathStyle:    c.PathStyle,
		AccessKeyID:     c.AccessKey,
		SecretAccessKey: c.SecretKey,
	})
}

// runner carries the state of one conversion.
type runner struct {
	ctx    context.Context
	cfg    Config
	stdout io.Writer
	logger *log.Logger
	client recs3.API
}

// run reads the configured selection from the input and writes it to the
// output in the configured format.
func run(ctx context.Context, c Config, stdout io.Writer, logger *log.Logger) error {
	if err := c.validate(); err != nil {
		return err
	}
	r := &runner{ctx: ctx, cfg: c, stdout: stdout, logger: logger}

	layout, err := r.loadLayout(c.Layout)
	if err != nil {
		return err
	}

	in, size, err := r.openInput(c.Input)
	if err != nil {
		return err
	}
	defer closer(in)()

	rows := c.Rows
	if rows == 0 {
		if rows, err = deriveRowCount(size-c.Offset, layout); err != nil {
			return err
		}
	}

	opts := []recfile.Option{recfile.WithOffset(c.Offset)}
	if c.Trace {
		opts = append(opts, recfile.WithTracer(recfile.LogTracer(logger)))
	}
	src, err := recfile.NewReader(in, c.Delim, layout, rows, opts...)
	if err != nil {
		return err
	}
	defer closer(src)()

	sel, err := recfile.ParseRows(c.Select)
	if err != nil {
		return err
	}
	recs, err := src.Read(sel, recfile.ParseFields(c.Fields)...)
	if err != nil {
		return err
	}
	if c.Trace {
		st := src.Stats()
		logger.Printf("read %d rows: %d bytes, %d seeks", recs.Len(), st.BytesRead, st.Seeks)
	}

	if err := r.writeOutput(recs); err != nil {
		return err
	}
	if c.OutLayout != "" {
		return r.writeLayout(c.OutLayout, recs.Layout())
	}
	return nil
}

// deriveRowCount computes the number of rows of a binary input from its size.
func deriveRowCount(size int64, layout *recfile.RowLayout) (int64, error) {
	rowSize := int64(layout.RowSize())
	if size < 0 || size%rowSize != 0 {
		return 0, fmt.Errorf("%w: input of %d bytes is not a whole number of %d-byte rows",
			recfile.ErrInvalidInput, size, rowSize)
	}
	return size / rowSize, nil
}

// -----------------------------------------------------------------------------
// Input
// -----------------------------------------------------------------------------

type readSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

// openInput opens a local file or an S3 object and returns its size.
func (r *runner) openInput(path string) (readSeekCloser, int64, error) {
	if recs3.IsURI(path) {
		client, err := r.s3()
		if err != nil {
			return nil, 0, err
		}
		bucket, key, err := recs3.ParseURI(path)
		if err != nil {
			return nil, 0, err
		}
		obj, err := recs3.Open(r.ctx, client, bucket, key)
		if err != nil {
			return nil, 0, err
		}
		return obj, obj.Size(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", recfile.ErrIO, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %w", recfile.ErrIO, err)
	}
	return f, info.Size(), nil
}

func (r *runner) loadLayout(path string) (*recfile.RowLayout, error) {
	if !recs3.IsURI(path) {
		return recfile.LoadLayout(path)
	}
	in, _, err := r.openInput(path)
	if err != nil {
		return nil, err
	}
	defer closer(in)()
	return recfile.DecodeLayout(in)
}

func (r *runner) s3() (recs3.API, error) {
	if r.client != nil {
		return r.client, nil
	}
	client, err := newS3Client(r.ctx, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	r.client = client
	return client, nil
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

// output is a destination that is either committed or discarded.
type output interface {
	io.Writer
	Close() error
	Abort()
}

type fileOutput struct{ *os.File }

func (f fileOutput) Abort() {
	_ = f.File.Close()
	_ = os.Remove(f.Name())
}

type stdoutOutput struct{ io.Writer }

func (stdoutOutput) Close() error { return nil }
func (stdoutOutput) Abort()       {}

func (r *runner) createOutput(path string) (output, error) {
	switch {
	case path == "" || path == "-":
		return stdoutOutput{r.stdout}, nil
	case recs3.IsURI(path):
		client, err := r.s3()
		if err != nil {
			return nil, err
		}
		bucket, key, err := recs3.ParseURI(path)
		if err != nil {
			return nil, err
		}
		return recs3.Create(r.ctx, client, bucket, key)
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", recfile.ErrIO, err)
		}
		return fileOutput{f}, nil
	}
}

// writeOutput renders recs in the configured format. A failed write discards
// the partial output.
func (r *runner) writeOutput(recs *recfile.Records) (err error) {
	out, err := r.createOutput(r.cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Abort()
			return
		}
		err = out.Close()
	}()

	switch r.cfg.Format {
	case "binary", "text":
		return r.writeRecords(out, recs)
	default:
		return r.export(out, recs)
	}
}

func (r *runner) writeRecords(w io.Writer, recs *recfile.Records) error {
	delim := ""
	var wopts []recfile.WriteOption
	if r.cfg.Format == "text" {
		delim = r.cfg.OutDelim
		if r.cfg.PadNull {
			wopts = append(wopts, recfile.WithPadNull())
		}
		if r.cfg.IgnoreNull {
			wopts = append(wopts, recfile.WithIgnoreNull())
		}
	}
	var opts []recfile.Option
	if r.cfg.Trace {
		opts = append(opts, recfile.WithTracer(recfile.LogTracer(r.logger)))
	}
	dst, err := recfile.NewWriter(w, delim, opts...)
	if err != nil {
		return err
	}
	if err := dst.Write(recs, wopts...); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func (r *runner) export(w io.Writer, recs *recfile.Records) error {
	codec, err := recfile.ParseParquetCompression(r.cfg.Parquet)
	if err != nil {
		return err
	}
	exp, err := recfile.ExporterByName(r.cfg.Format, recfile.WithParquetCompression(codec))
	if err != nil {
		return err
	}
	comp, err := recfile.CompressorByName(r.cfg.Compress)
	if err != nil {
		return err
	}
	cw, err := comp.Compress(w)
	if err != nil {
		return err
	}
	if err := exp.Export(cw, recs); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

func (r *runner) writeLayout(path string, l *recfile.RowLayout) (err error) {
	out, err := r.createOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Abort()
			return
		}
		err = out.Close()
	}()
	return recfile.EncodeLayout(out, l)
}

// closer returns a function that closes c, discarding the error.
// Use with defer on read-only handles. It mirrors the unexported helper in
// package recfile, which main cannot import.
func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
