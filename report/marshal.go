package report

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/voltforge/voltc/logger"
)

// Serialization layout: a fixed binary header carrying the byte length of
// two CBOR blocks (results, diagnostics), then the blocks themselves. The
// blocks are encoded with deterministic CBOR options and serialized in
// parallel; together with Finalize's canonical ordering this makes ToBytes
// output byte-identical across runs over the same declaration sequence.

const headerLen = 2 * 8

type header struct {
	resultsLen     uint64
	diagnosticsLen uint64
}

func (h *header) toBytes() []byte {
	buf := make([]byte, 0, headerLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.resultsLen)
	buf = binary.LittleEndian.AppendUint64(buf, h.diagnosticsLen)
	return buf
}

func (h *header) fromBytes(buf []byte) {
	h.resultsLen = binary.LittleEndian.Uint64(buf[0:8])
	h.diagnosticsLen = binary.LittleEndian.Uint64(buf[8:16])
}

type diagnostics struct {
	Version        string
	Contradictions []Contradiction
	Violations     []RangeViolation
	DomainIssues   []DomainIssue
	Unsupported    []UnsupportedShape
}

// ToBytes serializes the report for downstream tooling.
func (r *Report) ToBytes() ([]byte, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}

	var results, diags []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		results, err = enc.Marshal(r.Results)
		return err
	})
	g.Go(func() error {
		var err error
		diags, err = enc.Marshal(diagnostics{
			Version:        r.Version,
			Contradictions: r.Contradictions,
			Violations:     r.Violations,
			DomainIssues:   r.DomainIssues,
			Unsupported:    r.Unsupported,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := header{
		resultsLen:     uint64(len(results)),
		diagnosticsLen: uint64(len(diags)),
	}
	buf := h.toBytes()
	buf = append(buf, results...)
	buf = append(buf, diags...)
	return buf, nil
}

// FromBytes deserializes a report produced by ToBytes, verifying the version
// header against binaryVersion.
func FromBytes(data []byte, binaryVersion semver.Version) (*Report, error) {
	if len(data) < headerLen {
		return nil, errors.New("invalid data length")
	}
	h := new(header)
	h.fromBytes(data)
	if uint64(len(data)) < headerLen+h.resultsLen+h.diagnosticsLen {
		return nil, errors.New("invalid data length")
	}

	dm, err := cbor.DecOptions{
		MaxArrayElements: 2147483647,
		MaxMapPairs:      2147483647,
	}.DecMode()
	if err != nil {
		return nil, err
	}

	r := new(Report)
	var d diagnostics
	var g errgroup.Group
	g.Go(func() error {
		return dm.NewDecoder(bytes.NewReader(data[headerLen : headerLen+h.resultsLen])).Decode(&r.Results)
	})
	g.Go(func() error {
		return dm.NewDecoder(bytes.NewReader(data[headerLen+h.resultsLen : headerLen+h.resultsLen+h.diagnosticsLen])).Decode(&d)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.Version = d.Version
	r.Contradictions = d.Contradictions
	r.Violations = d.Violations
	r.DomainIssues = d.DomainIssues
	r.Unsupported = d.Unsupported

	if err := r.checkSerializationHeader(binaryVersion); err != nil {
		return nil, err
	}
	r.Finalize()
	return r, nil
}

// checkSerializationHeader parses the version header and warns on mismatch;
// illegal values error.
func (r *Report) checkSerializationHeader(binaryVersion semver.Version) error {
	objectVersion, err := semver.Parse(r.Version)
	if err != nil {
		return fmt.Errorf("when parsing report version: %w", err)
	}
	if binaryVersion.Compare(objectVersion) != 0 {
		log := logger.Logger()
		log.Warn().Str("binary", binaryVersion.String()).Str("object", objectVersion.String()).Msg("voltc version (binary) mismatch with report. there are no guarantees on compatibility")
	}
	return nil
}
