// Package manifest loads and saves a project's package.json while keeping
// its key order and indentation intact.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/nightconcept/pika-go/internal/core/errs"
)

const FileName = "package.json"

// DefaultIndent is used when the file on disk had no detectable indentation.
const DefaultIndent = "  "

//go:embed schema/package.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// Manifest is a package.json document. Only the fields pika needs have
// accessors; everything else is carried through untouched.
type Manifest struct {
	// Indent is the indentation unit detected on load, "" if none was found.
	Indent string

	root *Object
}

// New wraps root as a Manifest with no detected indentation.
func New(root *Object) *Manifest {
	if root == nil {
		root = NewObject()
	}
	return &Manifest{root: root}
}

// Root exposes the underlying ordered object.
func (m *Manifest) Root() *Object { return m.root }

// Version returns the top-level "version" field.
func (m *Manifest) Version() string {
	return m.root.GetString("version")
}

// Script returns scripts[name], or "" when absent.
func (m *Manifest) Script(name string) string {
	scripts, err := m.scripts()
	if err != nil {
		return ""
	}
	return scripts.GetString(name)
}

// SetScript sets scripts[name], creating the "scripts" object if needed.
func (m *Manifest) SetScript(name, command string) error {
	scripts, err := m.scripts()
	if err != nil {
		return err
	}
	if err := scripts.SetString(name, command); err != nil {
		return err
	}
	raw, err := scripts.MarshalJSON()
	if err != nil {
		return err
	}
	m.root.Set("scripts", raw)
	return nil
}

func (m *Manifest) scripts() (*Object, error) {
	scripts := NewObject()
	raw, ok := m.root.Get("scripts")
	if !ok {
		return scripts, nil
	}
	if err := scripts.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("scripts: %w", err)
	}
	return scripts, nil
}

// Bytes renders the manifest indented with m.Indent (DefaultIndent when
// empty) and terminated by a newline.
func (m *Manifest) Bytes() ([]byte, error) {
	compact, err := m.root.MarshalJSON()
	if err != nil {
		return nil, err
	}
	indent := m.Indent
	if indent == "" {
		indent = DefaultIndent
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", indent); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Parse decodes data as a manifest and detects its indentation.
func Parse(data []byte) (*Manifest, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	root := NewObject()
	if err := root.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &Manifest{root: root, Indent: DetectIndent(string(data))}, nil
}

// Load reads dir/package.json.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ErrorManifestRead(path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errs.ErrorManifestRead(path, err)
	}
	return m, nil
}

// Save writes m to dir/package.json, overwriting any existing file.
func Save(dir string, m *Manifest) error {
	path := filepath.Join(dir, FileName)
	data, err := m.Bytes()
	if err != nil {
		return errs.ErrorManifestWrite(path, err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errs.ErrorManifestWrite(path, err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return errs.ErrorManifestWrite(path, err)
	}
	if err := file.Close(); err != nil {
		return errs.ErrorManifestWrite(path, err)
	}
	return nil
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("package.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("package.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validate checks the fields pika reads have the types it expects.
func validate(data []byte) error {
	schema, err := getSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("unexpected package.json shape: %s", ve.Error())
		}
		return err
	}
	return nil
}
