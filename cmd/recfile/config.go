package main

import (
	"fmt"

	"github.com/justapithecus/recfile/recfile"
)

// Config is read from flags, environment and an optional config file.
type Config struct {
	Input      string `usage:"input record file (local path or s3://bucket/key)"`
	Output     string `usage:"output path (local path, s3://bucket/key or - for stdout)"`
	Layout     string `usage:"JSON layout of the input rows"`
	OutLayout  string `usage:"write the JSON layout of the output rows to this path"`
	Rows       int64  `usage:"number of rows in the input; 0 derives it from the size of a binary input"`
	Offset     int64  `usage:"byte offset of the first row in the input"`
	Delim      string `usage:"input delimiter; empty for binary input"`
	OutDelim   string `usage:"output delimiter for the text format"`
	Select     string `usage:"rows to read, e.g. 0,2,4 or 10:20; empty reads all rows"`
	Fields     string `usage:"comma separated fields to read; empty reads all fields"`
	Format     string `usage:"output format: binary | text | jsonl | parquet"`
	Compress   string `usage:"export stream compression: noop | gzip | zstd"`
	Parquet    string `usage:"parquet page compression: none | snappy | gzip | zstd"`
	PadNull    bool   `usage:"write NUL bytes of string fields as spaces (text format)"`
	IgnoreNull bool   `usage:"stop string fields at the first NUL byte (text format)"`
	Region     string `usage:"S3 region"`
	Endpoint   string `usage:"S3 endpoint for S3-compatible stores"`
	PathStyle  bool   `usage:"use S3 path-style addressing"`
	AccessKey  string `usage:"S3 access key id; empty uses the default credential chain"`
	SecretKey  string `usage:"S3 secret access key"`
	Trace      bool   `usage:"trace planning and transfers to stderr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Output:   "-",
		OutDelim: ",",
		Format:   "text",
		Compress: "noop",
		Parquet:  "snappy",
		Region:   "us-east-1",
	}
}

// validate rejects inconsistent settings before any file is touched.
func (c Config) validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: no input", recfile.ErrInvalidInput)
	}
	if c.Layout == "" {
		return fmt.Errorf("%w: no layout", recfile.ErrMissingSchema)
	}
	if c.Rows < 0 {
		return fmt.Errorf("%w: negative row count %d", recfile.ErrInvalidInput, c.Rows)
	}
	if c.Rows == 0 && c.Delim != "" {
		return fmt.Errorf("%w: text input needs a row count", recfile.ErrMissingSchema)
	}
	comp, err := recfile.CompressorByName(c.Compress)
	if err != nil {
		return err
	}
	switch c.Format {
	case "binary", "text":
		if comp.Name() != "noop" {
			return fmt.Errorf("%w: record files are not compressed; use jsonl or parquet", recfile.ErrInvalidInput)
		}
	case "jsonl", "parquet":
	default:
		return fmt.Errorf("%w: unknown format %q", recfile.ErrInvalidInput, c.Format)
	}
	if c.Format == "text" && c.OutDelim == "" {
		return fmt.Errorf("%w: text output needs a delimiter", recfile.ErrInvalidInput)
	}
	return nil
}
