package searchindex

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/kailas-cloud/docfusion/internal/db"
	"github.com/kailas-cloud/docfusion/internal/domain/document"
)

// toRecord builds a Record from hash fields, dropping the stored vector.
func toRecord(id string, fields map[string]string) document.Record {
	attrs := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == document.AttrVector {
			continue
		}
		attrs[k] = v
	}
	return document.Record{
		ID:     id,
		Origin: attrs[document.AttrOrigin],
		Attrs:  attrs,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrKeyNotFound)
}
