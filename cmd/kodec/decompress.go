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

func newDecompressCommand() *cobra.Command {
	var (
		input  string
		output string
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "decompress",
		Short: "Decompress a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompress(input, output, jobs)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "input file path (required)")
	flags.StringVarP(&output, "output", "o", "", "output file path, or NONE to discard the decompressed bytes (required)")
	flags.IntVarP(&jobs, "jobs", "j", 1, "number of concurrent jobs")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runDecompress(input, output string, jobs int) error {
	log := newLogger()
	defer log.Sync()

	in, err := os.Open(input)

	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}

	defer in.Close()

	cfg := kio.Config{Jobs: jobs}
	cis, err := kio.NewCompressedInputStream(in, cfg)

	if err != nil {
		in.Close()
		return fmt.Errorf("failed to create compressed stream: %w", err)
	}

	cis.AddListener(newInfoListener(log))

	out, err := openOutput(output)

	if err != nil {
		cis.Close()
		return fmt.Errorf("failed to create output file: %w", err)
	}

	defer out.Close()

	start := time.Now()
	written, err := io.Copy(out, cis)

	if err != nil {
		cis.Close()
		return fmt.Errorf("decompression failed: %w", err)
	}

	if err := cis.Close(); err != nil {
		return fmt.Errorf("failed to close compressed stream: %w", err)
	}

	log.Infow("decompression complete", "input", input, "output", output,
		"bytesWritten", written, "elapsed", time.Since(start))
	return nil
}
