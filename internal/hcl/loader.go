package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tunegrid/internal/config"
	"github.com/vk/tunegrid/internal/ctxlog"
	"github.com/vk/tunegrid/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL declaration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their blocks into one
// model. Problems in different files and blocks are collected and returned
// together rather than stopping at the first one.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.NewModel()
	parser := hclparse.NewParser()
	var errs *multierror.Error
	declaredIn := make(map[string]string)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			errs = multierror.Append(errs, fmt.Errorf("failed to parse HCL file %s: %w", file, diags))
			continue
		}

		var root schema.File
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			errs = multierror.Append(errs, fmt.Errorf("failed to decode HCL file %s: %w", file, diags))
			continue
		}

		for _, fn := range root.Functions {
			if prev, dup := declaredIn[fn.Name]; dup {
				errs = multierror.Append(errs, fmt.Errorf("%s: function '%s' is already declared in %s", file, fn.Name, prev))
				continue
			}
			def, err := translateFunction(ctx, fn)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", file, err))
				continue
			}
			declaredIn[fn.Name] = file
			model.Functions[def.Name] = def
		}
		for _, exp := range root.Experiments {
			if _, err := model.Experiment(exp.Name); err == nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: experiment '%s' is declared more than once", file, exp.Name))
				continue
			}
			def, err := translateExperiment(exp)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", file, err))
				continue
			}
			model.Experiments = append(model.Experiments, def)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "functions", len(model.Functions), "experiments", len(model.Experiments))
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of the .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) != ".hcl" {
				return nil, fmt.Errorf("%s is not an .hcl file", path)
			}
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
