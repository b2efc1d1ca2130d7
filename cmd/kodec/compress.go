/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	kio "github.com/blockcodec/kodec/io"
)

func newCompressCommand() *cobra.Command {
	var (
		input     string
		output    string
		blockSize int
		transform string
		entropy   string
		jobs      int
		checksum  bool
	)

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(input, output, blockSize, transform, entropy, jobs, checksum)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "input file path (required)")
	flags.StringVarP(&output, "output", "o", "", "output file path, or NONE to discard the compressed bytes (required)")
	flags.IntVarP(&blockSize, "block", "b", 4*1024*1024, "block size in bytes")
	flags.StringVarP(&transform, "transform", "t", "NONE", "transform pipeline, e.g. RLT+ZRLT")
	flags.StringVarP(&entropy, "entropy", "e", "FLATE", "entropy codec: NONE or FLATE")
	flags.IntVarP(&jobs, "jobs", "j", 1, "number of concurrent jobs")
	flags.BoolVarP(&checksum, "checksum", "x", false, "add a checksum to each block")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runCompress(input, output string, blockSize int, transformName, entropyName string, jobs int, checksum bool) error {
	log := newLogger()
	defer log.Sync()

	in, err := os.Open(input)

	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}

	defer in.Close()

	out, err := openOutput(output)

	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	defer out.Close()

	cfg := kio.Config{
		Entropy:   entropyName,
		Transform: transformName,
		BlockSize: blockSize,
		Jobs:      jobs,
		Checksum:  checksum,
	}

	cos, err := kio.NewCompressedOutputStream(out, cfg)

	if err != nil {
		out.Close()
		return fmt.Errorf("failed to create compressed stream: %w", err)
	}

	cos.AddListener(newInfoListener(log))
	start := time.Now()
	written, err := io.Copy(cos, in)

	if err != nil {
		cos.Close()
		return fmt.Errorf("compression failed: %w", err)
	}

	if err := cos.Close(); err != nil {
		return fmt.Errorf("failed to close compressed stream: %w", err)
	}

	log.Infow("compression complete", "input", input, "output", output,
		"bytesRead", written, "elapsed", time.Since(start))
	return nil
}
