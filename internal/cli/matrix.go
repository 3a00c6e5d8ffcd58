package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"routerprobe/internal/common/fsutil"
	"routerprobe/internal/config"
	"routerprobe/internal/matrix"
	"routerprobe/internal/report"
	"routerprobe/internal/store"
	"routerprobe/pkg/types"
)

// matrixOptions holds matrix-only flags.
type matrixOptions struct {
	Capabilities []string
	Format       string
	Out          string
	Input        string
}

func runMatrix(_ context.Context, g *globalOptions, cfg config.Config, mo matrixOptions) error {
	ms, err := loadMatrices(cfg, mo)
	if err != nil {
		return err
	}

	switch mo.Format {
	case "", "html":
		var (
			buf       bytes.Buffer
			generated time.Time
		)
		for _, m := range ms {
			if m.GeneratedAt.After(generated) {
				generated = m.GeneratedAt
			}
		}
		if generated.IsZero() {
			generated = time.Now()
		}
		if err := report.HTML(&buf, ms, generated); err != nil {
			return err
		}
		return writeOutput(g, mo.Out, "index.html", buf.Bytes())
	case "terminal":
		for _, m := range ms {
			if err := report.Terminal(g.Stdout, m); err != nil {
				return err
			}
		}
		return nil
	case "json":
		b, err := json.MarshalIndent(ms, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(g, mo.Out, "-", append(b, '\n'))
	default:
		return fmt.Errorf("unknown format %q (want html|terminal|json)", mo.Format)
	}
}

// loadMatrices builds one matrix per requested capability. Without
// --capability every capability with results is included.
func loadMatrices(cfg config.Config, mo matrixOptions) ([]matrix.Matrix, error) {
	if mo.Input != "" {
		r, err := store.LoadFile(mo.Input)
		if err != nil {
			return nil, err
		}
		return []matrix.Matrix{matrix.Build(r)}, nil
	}

	caps := types.Capabilities
	explicit := len(mo.Capabilities) > 0
	if explicit {
		caps = caps[:0:0]
		for _, s := range mo.Capabilities {
			c, err := types.ParseCapability(s)
			if err != nil {
				return nil, err
			}
			caps = append(caps, c)
		}
	}

	st := store.New(cfg.DataDir, zerolog.Nop())
	var ms []matrix.Matrix
	for _, c := range caps {
		r, _, err := st.Latest(c)
		if errors.Is(err, store.ErrNotFound) && !explicit {
			continue
		}
		if err != nil {
			return nil, err
		}
		if r.Capability == "" {
			r.Capability = c
		}
		ms = append(ms, matrix.Build(r))
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w in %s; run `routerprobe probe` first", store.ErrNotFound, cfg.DataDir)
	}
	return ms, nil
}

// writeOutput writes b to path; "-" means stdout.
func writeOutput(g *globalOptions, path, fallback string, b []byte) error {
	if path == "" {
		path = fallback
	}
	if path == "-" {
		_, err := g.Stdout.Write(b)
		return err
	}
	abs, err := fsutil.Resolve(path)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(abs, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "Wrote %s\n", abs)
	return nil
}
