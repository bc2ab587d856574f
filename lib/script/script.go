// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/dop251/goja"

	"github.com/bureau-foundation/transformfs/lib/transform"
)

// ErrNoTransform is returned by Load when the script defines no
// transform function.
var ErrNoTransform = errors.New("script does not define a transform function")

// Options configures a Script.
type Options struct {
	// Logger receives console output from the script. If nil, console
	// output is discarded.
	Logger *slog.Logger
}

// Script is a loaded transform script. It implements
// transform.Transformer.
type Script struct {
	name   string
	logger *slog.Logger

	// mu serializes every entry into runtime, including hook calls
	// made through the Content values this script hands out.
	mu        sync.Mutex
	runtime   *goja.Runtime
	transform goja.Callable
}

// Load reads and evaluates the script at path.
func Load(path string, options Options) (*Script, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return LoadSource(path, string(source), options)
}

// LoadSource evaluates source as a script. The name is used in stack
// traces and log output.
func LoadSource(name, source string, options Options) (*Script, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	script := &Script{
		name:    name,
		logger:  logger.With("script", name),
		runtime: goja.New(),
	}

	module := script.runtime.NewObject()
	exports := script.runtime.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return nil, err
	}
	if err := script.runtime.Set("module", module); err != nil {
		return nil, err
	}
	if err := script.runtime.Set("exports", exports); err != nil {
		return nil, err
	}
	if err := script.installHost(); err != nil {
		return nil, fmt.Errorf("installing host API: %w", err)
	}
	if err := script.installConsole(); err != nil {
		return nil, fmt.Errorf("installing console: %w", err)
	}

	if _, err := script.runtime.RunScript(name, source); err != nil {
		return nil, fmt.Errorf("evaluating script %s: %w", name, err)
	}

	function, err := script.findTransform(module)
	if err != nil {
		return nil, fmt.Errorf("loading script %s: %w", name, err)
	}
	script.transform = function
	return script, nil
}

// findTransform looks for transform on module.exports first (the
// script may have replaced the exports object) and then on the global
// object.
func (s *Script) findTransform(module *goja.Object) (goja.Callable, error) {
	candidates := []goja.Value{}
	if exports, ok := module.Get("exports").(*goja.Object); ok {
		candidates = append(candidates, exports.Get("transform"))
	}
	candidates = append(candidates, s.runtime.GlobalObject().Get("transform"))

	for _, candidate := range candidates {
		if candidate == nil || goja.IsUndefined(candidate) || goja.IsNull(candidate) {
			continue
		}
		function, ok := goja.AssertFunction(candidate)
		if !ok {
			return nil, fmt.Errorf("transform is a %s, not a function", candidate.ExportType())
		}
		return function, nil
	}
	return nil, ErrNoTransform
}

// Transform calls the script's transform function with inputs and
// converts its result into entries. Any thrown exception or malformed
// descriptor fails the whole call.
func (s *Script) Transform(inputs []string) ([]transform.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]any, len(inputs))
	for index, input := range inputs {
		items[index] = input
	}

	result, err := s.transform(goja.Undefined(), s.runtime.NewArray(items...))
	if err != nil {
		return nil, fmt.Errorf("transform threw: %w", err)
	}

	array, ok := result.(*goja.Object)
	if !ok || array.ClassName() != "Array" {
		return nil, fmt.Errorf("%w: transform must return an array", transform.ErrMalformedEntry)
	}

	length := array.Get("length").ToInteger()
	entries := make([]transform.Entry, 0, length)
	for index := int64(0); index < length; index++ {
		entry, err := s.entryFromDescriptor(array.Get(strconv.FormatInt(index, 10)))
		if err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", index, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Script) entryFromDescriptor(value goja.Value) (transform.Entry, error) {
	descriptor, ok := value.(*goja.Object)
	if !ok {
		return transform.Entry{}, fmt.Errorf("%w: descriptor is not an object", transform.ErrMalformedEntry)
	}

	var path string
	if property := descriptor.Get("path"); property != nil {
		path, _ = property.Export().(string)
	}
	if path == "" {
		return transform.Entry{}, fmt.Errorf("%w: path must be a non-empty string", transform.ErrMalformedEntry)
	}

	metadata, ok := descriptor.Get("metadata").(*goja.Object)
	if !ok {
		return transform.Entry{}, fmt.Errorf("%w: %s: metadata must be an object", transform.ErrMalformedEntry, path)
	}
	size, present, err := unsignedField(metadata, "size", math.MaxUint64)
	if err != nil {
		return transform.Entry{}, fmt.Errorf("%w: %s: %v", transform.ErrMalformedEntry, path, err)
	}
	if !present {
		return transform.Entry{}, fmt.Errorf("%w: %s: metadata.size is required", transform.ErrMalformedEntry, path)
	}
	blockSize, _, err := unsignedField(metadata, "block_size", math.MaxUint32)
	if err != nil {
		return transform.Entry{}, fmt.Errorf("%w: %s: %v", transform.ErrMalformedEntry, path, err)
	}

	content := &hooks{script: s, path: path, this: descriptor}
	if content.read, err = function(descriptor, "read", true); err != nil {
		return transform.Entry{}, fmt.Errorf("%w: %s: %v", transform.ErrMalformedEntry, path, err)
	}
	if content.open, err = function(descriptor, "open", false); err != nil {
		return transform.Entry{}, fmt.Errorf("%w: %s: %v", transform.ErrMalformedEntry, path, err)
	}
	if content.close, err = function(descriptor, "close", false); err != nil {
		return transform.Entry{}, fmt.Errorf("%w: %s: %v", transform.ErrMalformedEntry, path, err)
	}

	return transform.Entry{
		Path:     path,
		Metadata: transform.FileMetadata{Size: size, BlockSize: uint32(blockSize)},
		Content:  content,
	}, nil
}

// unsignedField reads a non-negative integer property no larger than
// limit. A missing, null or undefined property reports present=false.
func unsignedField(object *goja.Object, name string, limit uint64) (value uint64, present bool, err error) {
	property := object.Get(name)
	if property == nil || goja.IsUndefined(property) || goja.IsNull(property) {
		return 0, false, nil
	}

	switch number := property.Export().(type) {
	case int64:
		if number < 0 {
			return 0, true, fmt.Errorf("metadata.%s must not be negative, got %d", name, number)
		}
		value = uint64(number)
	case float64:
		if number < 0 || number != math.Trunc(number) || number >= math.MaxUint64 {
			return 0, true, fmt.Errorf("metadata.%s must be a non-negative integer, got %v", name, number)
		}
		value = uint64(number)
	default:
		return 0, true, fmt.Errorf("metadata.%s must be a number, got %s", name, property.ExportType())
	}

	if value > limit {
		return 0, true, fmt.Errorf("metadata.%s is %d, exceeds %d", name, value, limit)
	}
	return value, true, nil
}

func function(object *goja.Object, name string, required bool) (goja.Callable, error) {
	property := object.Get(name)
	if property == nil || goja.IsUndefined(property) || goja.IsNull(property) {
		if required {
			return nil, fmt.Errorf("%s function is required", name)
		}
		return nil, nil
	}
	callable, ok := goja.AssertFunction(property)
	if !ok {
		return nil, fmt.Errorf("%s must be a function", name)
	}
	return callable, nil
}

// hooks is the transform.Content for a script-declared file.
type hooks struct {
	script *Script
	path   string
	this   *goja.Object

	open  goja.Callable
	read  goja.Callable
	close goja.Callable
}

func (h *hooks) Open() error {
	if h.open == nil {
		return nil
	}
	h.script.mu.Lock()
	defer h.script.mu.Unlock()

	if _, err := h.open(h.this); err != nil {
		return fmt.Errorf("open %s: %w", h.path, err)
	}
	return nil
}

func (h *hooks) Read(offset int64, length uint32) ([]byte, error) {
	h.script.mu.Lock()
	defer h.script.mu.Unlock()

	runtime := h.script.runtime
	result, err := h.read(h.this, runtime.ToValue(offset), runtime.ToValue(length))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.path, err)
	}
	data, err := h.script.toBytes(result)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h.path, err)
	}
	return data, nil
}

func (h *hooks) Close() error {
	if h.close == nil {
		return nil
	}
	h.script.mu.Lock()
	defer h.script.mu.Unlock()

	if _, err := h.close(h.this); err != nil {
		return fmt.Errorf("close %s: %w", h.path, err)
	}
	return nil
}

// toBytes converts a read result into bytes. Strings are UTF-8
// encoded; ArrayBuffer, typed arrays and DataView are copied out of
// the runtime; null and undefined are empty.
func (s *Script) toBytes(value goja.Value) ([]byte, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}
	if text, ok := value.Export().(string); ok {
		return []byte(text), nil
	}

	var data []byte
	if err := s.runtime.ExportTo(value, &data); err != nil {
		return nil, fmt.Errorf("read must return a string, ArrayBuffer, typed array or DataView: %w", err)
	}
	return bytes.Clone(data), nil
}
