package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"crsl/assets"
	"crsl/config"
	"crsl/persist"
	"crsl/render"
	"crsl/state"
)

// destination returns output directory from optional argument, current
// directory when absent.
func destination(cmd *cli.Command, n int) (string, error) {
	dst := cmd.Args().Get(n)
	if dst == "" {
		return os.Getwd()
	}
	return filepath.Abs(dst)
}

// checkDestination refuses to overwrite previous export unless asked to.
func checkDestination(env *state.LocalEnv, dir string, slides int) error {
	if env.Overwrite {
		return nil
	}
	ext := env.Cfg.Export.Format.Ext()
	for i := range slides {
		name := filepath.Join(dir, persist.SlideName(i, ext))
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("destination '%s' already exists, use --overwrite", name)
		}
	}
	return nil
}

// report puts live state of every mounted slide into debug report.
func report(env *state.LocalEnv, rt *Runtime) {
	if env.Rpt == nil {
		return
	}
	dir := "slides/" + config.CleanFileName(rt.Doc.ID)
	for _, s := range rt.Workspace.Mounts().All() {
		name := fmt.Sprintf("%s/slide_%02d", dir, s.Slide()+1)
		if m := s.Markup(); m != "" {
			env.Rpt.StoreData(name+".html", []byte(m))
		}
		env.Rpt.StoreData(name+".txt", []byte(s.Dump()))
	}
}

// Export renders document and writes image of every slide.
func Export(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	env.Overwrite = cmd.Bool("overwrite")

	if cmd.Args().Len() < 1 {
		return errors.New("no document to export has been specified")
	}
	doc, base, err := loadDocument(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	dir, err := destination(cmd, 1)
	if err != nil {
		return err
	}
	if !env.Cfg.Export.Archive {
		if err := checkDestination(env, dir, len(doc.Slides)); err != nil {
			return err
		}
	}

	rt, err := NewRuntime(env.Cfg, doc, base, nil, env.Log)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.Mount(ctx); err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.Store("input/"+filepath.Base(cmd.Args().Get(0)), cmd.Args().Get(0))
	}
	names, err := rt.Export(ctx, dir)
	report(env, rt)
	env.Log.Info("Export finished", zap.String("id", doc.ID), zap.Int("exported", len(names)), zap.Int("slides", len(doc.Slides)))
	return err
}

// Edit replays editing script against document, saves result and exports
// slides when script asks for it.
func Edit(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	env.Overwrite = cmd.Bool("overwrite")

	if cmd.Args().Len() < 2 {
		return errors.New("script and document must be specified")
	}
	script, err := LoadScript(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	doc, base, err := loadDocument(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	dir, err := destination(cmd, 2)
	if err != nil {
		return err
	}

	store, err := persist.OpenStorage(&env.Cfg.Storage, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	rt, err := NewRuntime(env.Cfg, doc, base, store, env.Log)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.Mount(ctx); err != nil {
		return err
	}
	if env.Rpt != nil {
		env.Rpt.Store("input/script-"+filepath.Base(cmd.Args().Get(0)), cmd.Args().Get(0))
		env.Rpt.Store("input/document-"+filepath.Base(cmd.Args().Get(1)), cmd.Args().Get(1))
	}
	err = rt.Run(ctx, script, dir)
	report(env, rt)
	if err != nil {
		return err
	}
	if rt.Session.Dirty() {
		if _, err := rt.Save(ctx); err != nil {
			return err
		}
	}
	env.Log.Info("Editing finished", zap.String("id", doc.ID), zap.Int("steps", len(script.Steps)),
		zap.Uint64("modifications", rt.Session.Modifications()))
	return nil
}

// Markup prints live injected markup of slide, or component tree of native
// slides.
func Markup(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() < 2 {
		return errors.New("document and slide number must be specified")
	}
	doc, base, err := loadDocument(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil || n < 1 || n > len(doc.Slides) {
		return fmt.Errorf("slide must be number from 1 to %d", len(doc.Slides))
	}

	rt, err := NewRuntime(env.Cfg, doc, base, nil, env.Log)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.Workspace.MountSlide(ctx, doc, rt.Session, n-1); err != nil {
		return err
	}
	s, _ := rt.Workspace.Mounts().Get(n - 1)

	out := s.Markup()
	if out == "" || cmd.Bool("tree") {
		out = s.Dump()
	}
	_, err = io.WriteString(os.Stdout, strings.TrimRight(out, "\n")+"\n")
	return err
}

// Templates lists available templates.
func Templates(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	r, err := render.NewFromConfig(env.Cfg, assets.NewLoader(&env.Cfg.Assets, env.Log), env.Log)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TEMPLATE\tSTRATEGY\tORIGIN")
	for _, t := range r.Templates() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Strategy, t.Origin)
	}
	return w.Flush()
}

// Load reads document from storage and writes it to destination file or
// STDOUT. Without id lists stored documents.
func Load(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	store, err := persist.OpenStorage(&env.Cfg.Storage, env.Log)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	if cmd.Args().Len() == 0 {
		ids, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(os.Stdout, id)
		}
		return nil
	}

	id := cmd.Args().Get(0)
	doc, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	out := os.Stdout
	if fname := cmd.Args().Get(1); fname != "" {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}
	env.Log.Debug("Document loaded", zap.String("id", id), zap.Int("slides", len(doc.Slides)))
	return doc.Write(out)
}
