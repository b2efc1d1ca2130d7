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
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kio "github.com/blockcodec/kodec/io"
)

const _VERSION = "1.0"

// _OUTPUT_NONE is the output path sentinel (case-insensitive) that discards
// compressed or decompressed bytes instead of writing a file, matching the
// teacher's -o NONE convention for benchmarking without disk I/O.
const _OUTPUT_NONE = "NONE"

var verbose bool

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "kodec",
		Short:         "kodec compresses and decompresses files with a pluggable block codec",
		Version:       _VERSION,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.AddCommand(newCompressCommand())
	root.AddCommand(newDecompressCommand())
	return root
}

// openOutput creates the output writer for path, or a NullOutputStream if
// path is the NONE sentinel.
func openOutput(path string) (io.WriteCloser, error) {
	if strings.EqualFold(path, _OUTPUT_NONE) {
		return kio.NewNullOutputStream()
	}

	return os.Create(path)
}

func newLogger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()

	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()

	if err != nil {
		logger = zap.NewNop()
	}

	return logger.Sugar()
}
