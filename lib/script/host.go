// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/transformfs/lib/codec"
	"github.com/bureau-foundation/transformfs/lib/hostfs"
)

// hostFunction is a native function exposed to scripts. Returning an
// error throws it as a JavaScript exception.
type hostFunction func(call goja.FunctionCall) (goja.Value, error)

// installHost defines the global host object.
func (s *Script) installHost() error {
	jsonObject, ok := s.runtime.GlobalObject().Get("JSON").(*goja.Object)
	if !ok {
		return errors.New("runtime has no JSON object")
	}
	jsonParse, ok := goja.AssertFunction(jsonObject.Get("parse"))
	if !ok {
		return errors.New("JSON.parse is not a function")
	}

	functions := map[string]hostFunction{
		"stat":    s.hostStat,
		"readdir": s.hostReaddir,
		"read":    s.hostRead,
		"readFile": func(call goja.FunctionCall) (goja.Value, error) {
			data, err := os.ReadFile(s.stringArgument(call, 0, "readFile"))
			if err != nil {
				return nil, err
			}
			return s.runtime.ToValue(s.runtime.NewArrayBuffer(data)), nil
		},
		"readText": func(call goja.FunctionCall) (goja.Value, error) {
			data, err := os.ReadFile(s.stringArgument(call, 0, "readText"))
			if err != nil {
				return nil, err
			}
			return s.runtime.ToValue(string(data)), nil
		},
		"decompress": s.hostDecompress,
		"readJSON": func(call goja.FunctionCall) (goja.Value, error) {
			data, err := os.ReadFile(s.stringArgument(call, 0, "readJSON"))
			if err != nil {
				return nil, err
			}
			return jsonParse(goja.Undefined(), s.runtime.ToValue(string(jsonc.ToJSON(data))))
		},
		"readYAML": func(call goja.FunctionCall) (goja.Value, error) {
			path := s.stringArgument(call, 0, "readYAML")
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			var value any
			if err := yaml.Unmarshal(data, &value); err != nil {
				return nil, fmt.Errorf("parsing YAML %s: %w", path, err)
			}
			return s.runtime.ToValue(value), nil
		},
		"readCBOR": func(call goja.FunctionCall) (goja.Value, error) {
			path := s.stringArgument(call, 0, "readCBOR")
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			value, err := codec.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("decoding CBOR %s: %w", path, err)
			}
			return s.runtime.ToValue(value), nil
		},
		"hash": s.hostHash,
		"basename": func(call goja.FunctionCall) (goja.Value, error) {
			return s.runtime.ToValue(filepath.Base(s.stringArgument(call, 0, "basename"))), nil
		},
		"dirname": func(call goja.FunctionCall) (goja.Value, error) {
			return s.runtime.ToValue(filepath.Dir(s.stringArgument(call, 0, "dirname"))), nil
		},
		"extname": func(call goja.FunctionCall) (goja.Value, error) {
			return s.runtime.ToValue(filepath.Ext(s.stringArgument(call, 0, "extname"))), nil
		},
		"join": func(call goja.FunctionCall) (goja.Value, error) {
			elements := make([]string, len(call.Arguments))
			for index := range call.Arguments {
				elements[index] = s.stringArgument(call, index, "join")
			}
			return s.runtime.ToValue(filepath.Join(elements...)), nil
		},
	}

	host := s.runtime.NewObject()
	for name, function := range functions {
		if err := host.Set(name, s.wrap(name, function)); err != nil {
			return err
		}
	}
	return s.runtime.Set("host", host)
}

// wrap converts a hostFunction into the panic-based form goja expects
// from native functions.
func (s *Script) wrap(name string, function hostFunction) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		value, err := function(call)
		if err != nil {
			panic(s.runtime.NewGoError(fmt.Errorf("host.%s: %w", name, err)))
		}
		if value == nil {
			return goja.Undefined()
		}
		return value
	}
}

// stringArgument returns argument index as a string, throwing a
// TypeError into the script if it is anything else.
func (s *Script) stringArgument(call goja.FunctionCall, index int, function string) string {
	text, ok := call.Argument(index).Export().(string)
	if !ok {
		panic(s.runtime.NewTypeError("host.%s: argument %d must be a string", function, index+1))
	}
	return text
}

func (s *Script) hostStat(call goja.FunctionCall) (goja.Value, error) {
	attr, err := hostfs.ReadAttr(s.stringArgument(call, 0, "stat"))
	if err != nil {
		return nil, err
	}

	// Fixed order, so Object.keys and JSON.stringify are stable.
	fields := []struct {
		name  string
		value any
	}{
		{"ino", attr.Ino},
		{"size", attr.Size},
		{"blocks", attr.Blocks},
		{"atimeMs", attr.Atime.UnixMilli()},
		{"mtimeMs", attr.Mtime.UnixMilli()},
		{"ctimeMs", attr.Ctime.UnixMilli()},
		{"kind", attr.Kind.String()},
		{"perm", attr.Perm},
		{"nlink", attr.Nlink},
		{"uid", attr.Uid},
		{"gid", attr.Gid},
		{"blksize", attr.Blksize},
	}
	record := s.runtime.NewObject()
	for _, field := range fields {
		if err := record.Set(field.name, field.value); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func (s *Script) hostReaddir(call goja.FunctionCall) (goja.Value, error) {
	entries, err := hostfs.ReadDir(s.stringArgument(call, 0, "readdir"), s.logger)
	if err != nil {
		return nil, err
	}

	items := make([]any, len(entries))
	for index, entry := range entries {
		record := s.runtime.NewObject()
		_ = record.Set("ino", entry.Ino)
		_ = record.Set("kind", entry.Kind.String())
		_ = record.Set("name", entry.Name)
		items[index] = record
	}
	return s.runtime.NewArray(items...), nil
}

// hostRead implements host.read(path, offset, length). The result is
// short when the range extends past end of file.
func (s *Script) hostRead(call goja.FunctionCall) (goja.Value, error) {
	path := s.stringArgument(call, 0, "read")
	offset := call.Argument(1).ToInteger()
	length := call.Argument(2).ToInteger()
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("offset and length must not be negative (got %d, %d)", offset, length)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if remaining := info.Size() - offset; remaining < length {
		length = max(remaining, 0)
	}

	buffer := make([]byte, length)
	count, err := file.ReadAt(buffer, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return s.runtime.ToValue(s.runtime.NewArrayBuffer(buffer[:count])), nil
}

func (s *Script) hostDecompress(call goja.FunctionCall) (goja.Value, error) {
	path := s.stringArgument(call, 0, "decompress")
	formatName := ""
	if argument := call.Argument(1); !goja.IsUndefined(argument) {
		formatName = s.stringArgument(call, 1, "decompress")
	}
	format, err := codec.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plain, err := codec.Decompress(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s.runtime.ToValue(s.runtime.NewArrayBuffer(plain)), nil
}

func (s *Script) hostHash(call goja.FunctionCall) (goja.Value, error) {
	file, err := os.Open(s.stringArgument(call, 0, "hash"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, err
	}
	return s.runtime.ToValue(hex.EncodeToString(hasher.Sum(nil))), nil
}

// installConsole defines console.log, console.info, console.debug,
// console.warn and console.error, each writing one log record.
func (s *Script) installConsole() error {
	console := s.runtime.NewObject()
	levels := map[string]func(string, ...any){
		"log":   s.logger.Info,
		"info":  s.logger.Info,
		"debug": s.logger.Debug,
		"warn":  s.logger.Warn,
		"error": s.logger.Error,
	}
	for name, log := range levels {
		err := console.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for index, argument := range call.Arguments {
				parts[index] = argument.String()
			}
			log(strings.Join(parts, " "))
			return goja.Undefined()
		})
		if err != nil {
			return err
		}
	}
	return s.runtime.Set("console", console)
}
