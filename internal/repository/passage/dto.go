package passage

import (
	"strconv"
	"strings"

	"github.com/veredito/juris/internal/db"
	"github.com/veredito/juris/internal/domain/document"
	"github.com/veredito/juris/internal/domain/schema"
	"github.com/veredito/juris/internal/domain/search/result"
)

// recordToFields flattens a record into hash fields. Integer attributes are
// stored as decimal strings so the NUMERIC index picks them up; opaque tags
// are stored as-is and simply not indexed.
func recordToFields(rec document.Record, vector []float32) map[string]string {
	fields := make(map[string]string, len(rec.Tags())+len(rec.Numerics())+2)
	fields["text"] = rec.Text()
	fields["vector"] = db.VectorToBytes(vector)
	for k, v := range rec.Tags() {
		fields[k] = v
	}
	for k, v := range rec.Numerics() {
		fields[k] = strconv.FormatInt(v, 10)
	}
	return fields
}

// fieldsToRecord rebuilds a record from hash fields, splitting metadata into
// tags and numerics along the declared schema.
func fieldsToRecord(id string, fields map[string]string, s schema.Schema) document.Record {
	tags := make(map[string]string)
	numerics := make(map[string]int64)
	text := ""

	for name, value := range fields {
		switch name {
		case "text":
			text = value
		case "vector":
			// binary blob, not part of the metadata
		default:
			splitField(name, value, s, tags, numerics)
		}
	}

	return document.Reconstruct(id, text, tags, numerics)
}

func entryToPassage(entry db.SearchEntry, keyPrefix string, s schema.Schema) result.Passage {
	tags := make(map[string]string)
	numerics := make(map[string]int64)
	text := ""

	for name, value := range entry.Fields {
		if name == "text" {
			text = value
			continue
		}
		splitField(name, value, s, tags, numerics)
	}

	id := strings.TrimPrefix(entry.Key, keyPrefix)
	return result.New(id, entry.Score, text, tags, numerics)
}

func splitField(name, value string, s schema.Schema, tags map[string]string, numerics map[string]int64) {
	if attr, ok := s.AttributeByName(name); ok && attr.Type() == schema.Integer {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			numerics[name] = v
			return
		}
	}
	tags[name] = value
}
