package repr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/headercheck/internal/ir"
)

// MarshalModule encodes m in the given format.
func MarshalModule(m *ir.Module, format TextFormat) ([]byte, error) {
	switch format {
	case ProtobufTextFormat:
		return encodeTextModule(m), nil
	case JSON:
		return encodeJSON(toJSONModule(m))
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// UnmarshalModule decodes a dump. Duplicate keys within one dump are a
// format error.
func UnmarshalModule(data []byte, format TextFormat) (*ir.Module, error) {
	switch format {
	case ProtobufTextFormat:
		return decodeTextModule(data)
	case JSON:
		var j jsonModule
		if err := decodeJSON(data, &j); err != nil {
			return nil, err
		}
		return fromJSONModule(&j)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func MarshalReport(r *ir.DiffReport, format TextFormat) ([]byte, error) {
	switch format {
	case ProtobufTextFormat:
		return encodeTextReport(r), nil
	case JSON:
		return encodeJSON(toJSONReport(r))
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// UnmarshalReport decodes a diff report. Text format stores only the
// status bits it names, so UNREFERENCED_CHANGES is restored from content.
func UnmarshalReport(data []byte, format TextFormat) (*ir.DiffReport, error) {
	var r *ir.DiffReport
	var err error
	switch format {
	case ProtobufTextFormat:
		r, err = decodeTextReport(data)
	case JSON:
		var j jsonReport
		if err = decodeJSON(data, &j); err == nil {
			r, err = fromJSONReport(&j)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	r.Status |= r.ComputeStatus() & ir.StatusUnreferencedChanges
	return r, nil
}

func MarshalMerged(m *ir.MergedReport, format TextFormat) ([]byte, error) {
	switch format {
	case ProtobufTextFormat:
		return encodeTextMerged(m), nil
	case JSON:
		return encodeJSON(toJSONMerged(m))
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func UnmarshalMerged(data []byte, format TextFormat) (*ir.MergedReport, error) {
	switch format {
	case ProtobufTextFormat:
		return decodeTextMerged(data)
	case JSON:
		var j jsonMerged
		if err := decodeJSON(data, &j); err != nil {
			return nil, err
		}
		return fromJSONMerged(&j)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ReadModule reads and decodes the dump at path.
func ReadModule(path string, format TextFormat) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	m, err := UnmarshalModule(data, format)
	if err != nil {
		return nil, withPath(err, path)
	}
	return m, nil
}

func WriteModule(path string, format TextFormat, m *ir.Module) error {
	data, err := MarshalModule(m, format)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func ReadReport(path string, format TextFormat) (*ir.DiffReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	r, err := UnmarshalReport(data, format)
	if err != nil {
		return nil, withPath(err, path)
	}
	return r, nil
}

func WriteReport(path string, format TextFormat, r *ir.DiffReport) error {
	data, err := MarshalReport(r, format)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func ReadMerged(path string, format TextFormat) (*ir.MergedReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merged report: %w", err)
	}
	m, err := UnmarshalMerged(data, format)
	if err != nil {
		return nil, withPath(err, path)
	}
	return m, nil
}

func WriteMerged(path string, format TextFormat, m *ir.MergedReport) error {
	data, err := MarshalMerged(m, format)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place, so a failed write never leaves a truncated output.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReportFingerprint hashes the canonical JSON form of r. The fingerprint is
// independent of the format the report was read from.
func ReportFingerprint(r *ir.DiffReport) (string, error) {
	return fingerprintJSON(ir.DomainDiffReport, toJSONReport(r))
}

// ModuleFingerprint hashes the canonical JSON form of m.
func ModuleFingerprint(m *ir.Module) (string, error) {
	return fingerprintJSON(ir.DomainModule, toJSONModule(m))
}

// MergedFingerprint hashes the canonical JSON form of m.
func MergedFingerprint(m *ir.MergedReport) (string, error) {
	return fingerprintJSON(ir.DomainMergedReport, toJSONMerged(m))
}

func fingerprintJSON(domain string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}
	return ir.Fingerprint(domain, generic)
}
