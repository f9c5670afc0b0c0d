// Command recfile converts fixed-layout record files.
//
// It reads a subset of rows and fields from a binary or delimited text
// record file, locally or on S3, and writes them as a binary or text record
// file, JSON Lines or Parquet.
//
//	recfile -input obs.bin -layout obs.json -fields id,flux -select 0:100 -format jsonl
package main

import (
	"context"
	"log"
	"os"

	"github.com/fulldump/goconfig"
)

func main() {
	c := Default()
	goconfig.Read(&c)

	logger := log.New(os.Stderr, "recfile: ", 0)
	if err := run(context.Background(), c, os.Stdout, logger); err != nil {
		logger.Fatalln("ERROR:", err)
	}
}
