package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/headercheck/internal/ir"
)

func marshalReport(r *ir.DiffReport) ([]byte, error) {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}

func unmarshalReport(data []byte) (*ir.DiffReport, error) {
	var r ir.DiffReport
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}

func marshalMerged(m *ir.MergedReport) ([]byte, error) {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal merged report: %w", err)
	}
	return data, nil
}

func unmarshalMerged(data []byte) (*ir.MergedReport, error) {
	var m ir.MergedReport
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal merged report: %w", err)
	}
	return &m, nil
}
