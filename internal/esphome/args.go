package esphome

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
)

// BuildArgs maps an operation plus its options onto the esphome CLI
// argument vector (without the binary itself). It is a pure function:
// identical inputs always produce byte-identical vectors.
//
// Flag order is fixed: subcommand, config path, operation-specific flags,
// then --substitution pairs sorted by key.
func BuildArgs(op domain.OperationKind, configPath string, opts domain.Options) ([]string, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrOperationNotAllowed, op)
	}

	args := []string{op.Subcommand(), configPath}

	if op == domain.OpCompile && opts.OnlyGenerate {
		args = append(args, "--only-generate")
	}
	if op == domain.OpUpload || op == domain.OpRun {
		if opts.Device != "" {
			args = append(args, "--device", opts.Device)
		}
		if opts.UploadSpeed > 0 {
			args = append(args, "--upload-speed", strconv.Itoa(opts.UploadSpeed))
		}
	}
	if op == domain.OpRun && opts.NoLogs {
		args = append(args, "--no-logs")
	}

	if len(opts.Substitutions) > 0 {
		keys := make([]string, 0, len(opts.Substitutions))
		for k := range opts.Substitutions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			args = append(args, "--substitution", k, opts.Substitutions[k])
		}
	}

	return args, nil
}
