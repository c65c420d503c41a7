package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/minorm/internal/schema"
)

// RecordsPath is the top-level CUE field holding record declarations.
const RecordsPath = "record"

// LoadDir loads every .cue file in dir as one CUE instance and compiles each
// entry under `record`. Descriptors are returned in declaration order.
func LoadDir(dir string) ([]*schema.Descriptor[schema.Record], error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}
	return CompileRecords(value)
}

// LoadFile compiles the records of a single CUE file.
func LoadFile(path string) ([]*schema.Descriptor[schema.Record], error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	value := cuecontext.New().CompileBytes(src, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileRecords(value)
}

// CompileRecords compiles every field of value's `record` struct.
func CompileRecords(value cue.Value) ([]*schema.Descriptor[schema.Record], error) {
	records := value.LookupPath(cue.ParsePath(RecordsPath))
	if !records.Exists() {
		return nil, &CompileError{
			Field:   RecordsPath,
			Message: "no records declared",
			Pos:     value.Pos(),
		}
	}

	iter, err := records.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*schema.Descriptor[schema.Record]
	for iter.Next() {
		d, err := CompileRecord(iter.Value())
		if err != nil {
			if !isCompileError(err) {
				err = fmt.Errorf("%s.%s: %w", RecordsPath, iter.Label(), err)
			}
			return nil, err
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, &CompileError{
			Field:   RecordsPath,
			Message: "no records declared",
			Pos:     records.Pos(),
		}
	}
	return out, nil
}

// Find returns the descriptor named name.
func Find(descs []*schema.Descriptor[schema.Record], name string) (*schema.Descriptor[schema.Record], error) {
	for _, d := range descs {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("record %q not declared", name)
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
