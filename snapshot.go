package bigsi

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/hcdenbakker/bigsi/blobstore"
	"github.com/hcdenbakker/bigsi/codec"
	"github.com/hcdenbakker/bigsi/internal/mmap"
	"github.com/hcdenbakker/bigsi/persistence"
	"github.com/hcdenbakker/bigsi/resource"
)

// ManifestSuffix is appended to a snapshot's blob name to form its
// manifest name.
const ManifestSuffix = ".manifest.json"

// CurrentKey is the blob name of the pointer to the latest published
// snapshot. It matches the virtual key resolved by s3.DDBCommitStore.
const CurrentKey = "CURRENT"

// Manifest describes a saved snapshot. It is stored next to the snapshot
// blob as a small self-describing sidecar.
type Manifest struct {
	Name           string    `json:"name"`
	FormatVersion  uint32    `json:"format_version"`
	Rows           uint64    `json:"rows"`
	AccessionCount uint64    `json:"accession_count"`
	NumHashes      uint32    `json:"num_hashes"`
	Compression    string    `json:"compression"`
	SizeBytes      int64     `json:"size_bytes"`
	Checksum       uint32    `json:"checksum"`
	Codec          string    `json:"codec"`
	CreatedAt      time.Time `json:"created_at"`
}

// SnapshotOptions configures snapshot save/load behavior.
type SnapshotOptions struct {
	// Compression selects the snapshot body compression.
	// Defaults to persistence.CompressionNone.
	Compression persistence.Compression

	// Codec encodes the manifest sidecar. Defaults to codec.Default.
	Codec codec.Codec

	// Controller, if set, throttles store transfers.
	Controller *resource.Controller

	// IndexOptions are applied to indexes created by the load functions.
	IndexOptions []Option
}

func applySnapshotOptions(optFns []func(*SnapshotOptions)) SnapshotOptions {
	o := SnapshotOptions{
		Compression: persistence.CompressionNone,
		Codec:       codec.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	return o
}

// MarshalBinary encodes the index as an uncompressed snapshot blob.
// It implements encoding.BinaryMarshaler.
func (idx *Index) MarshalBinary() ([]byte, error) {
	return idx.encode(persistence.CompressionNone)
}

// encodeRows serializes the row list: per row, its bit width followed by
// its packed words. The buffer is pre-sized from the known row widths.
func (idx *Index) encodeRows() ([]byte, error) {
	size := 0
	for _, row := range idx.rows {
		size += 8 + 8*len(row.Bytes())
	}

	var buf bytes.Buffer
	buf.Grow(size)
	bw := persistence.NewWriter(&buf)
	for _, row := range idx.rows {
		if err := bw.WriteUint64(uint64(row.Len())); err != nil {
			return nil, err
		}
		if err := bw.WriteUint64Slice(row.Bytes()); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (idx *Index) encode(compression persistence.Compression) ([]byte, error) {
	body, err := idx.encodeRows()
	if err != nil {
		return nil, err
	}

	stored, err := persistence.CompressBlock(body, compression)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(persistence.HeaderSize + len(stored) + persistence.TrailerSize)

	cw := persistence.NewChecksumWriter(&buf)
	bw := persistence.NewWriter(cw)
	if err := bw.WriteHeader(&persistence.Header{
		Compression:    uint8(compression),
		NumHashes:      uint32(idx.numHashes),
		RowCount:       uint64(len(idx.rows)),
		AccessionCount: uint64(idx.accessions),
	}); err != nil {
		return nil, err
	}
	if _, err := cw.Write(stored); err != nil {
		return nil, err
	}

	// CRC32 trailer over header+body, written outside the checksummer.
	var trailer [persistence.TrailerSize]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.Sum())
	buf.Write(trailer[:])

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a snapshot blob produced by MarshalBinary,
// SaveToFile or SaveToStore, replacing the receiver's contents. It
// implements encoding.BinaryUnmarshaler. Malformed or truncated input is
// reported as an error wrapping persistence.ErrCorrupt or one of the
// persistence format errors; the receiver is left unchanged on failure.
func (idx *Index) UnmarshalBinary(data []byte) error {
	if len(data) < persistence.HeaderSize+persistence.TrailerSize {
		return fmt.Errorf("%w: truncated snapshot (%d bytes)", persistence.ErrCorrupt, len(data))
	}

	payload := data[:len(data)-persistence.TrailerSize]
	expected := binary.LittleEndian.Uint32(data[len(data)-persistence.TrailerSize:])
	if actual := persistence.ComputeChecksum(payload); actual != expected {
		return &persistence.ChecksumMismatchError{Expected: expected, Actual: actual}
	}

	br := persistence.NewReader(bytes.NewReader(payload[:persistence.HeaderSize]))
	header, err := br.ReadHeader()
	if err != nil {
		return err
	}
	if header.RowCount == 0 || header.AccessionCount == 0 || header.NumHashes == 0 {
		return fmt.Errorf("%w: zero parameter in header", persistence.ErrCorrupt)
	}

	body, err := persistence.DecompressBlock(payload[persistence.HeaderSize:], persistence.Compression(header.Compression))
	if err != nil {
		return err
	}

	// A row costs at least its 8-byte width; bounds-check before
	// trusting RowCount for the allocation.
	if header.RowCount > uint64(len(body))/8 {
		return fmt.Errorf("%w: row count %d exceeds body size", persistence.ErrCorrupt, header.RowCount)
	}

	rr := bytes.NewReader(body)
	rbr := persistence.NewReader(rr)
	rows := make([]*bitset.BitSet, header.RowCount)
	for i := range rows {
		bitLen, err := rbr.ReadUint64()
		if err != nil {
			return fmt.Errorf("%w: row %d width: %w", persistence.ErrCorrupt, i, err)
		}
		if bitLen != 0 && bitLen != header.AccessionCount {
			return fmt.Errorf("%w: row %d width %d, want 0 or %d", persistence.ErrCorrupt, i, bitLen, header.AccessionCount)
		}
		if bitLen == 0 {
			rows[i] = bitset.New(0)
			continue
		}
		words, err := rbr.ReadUint64Slice(int((bitLen + 63) / 64))
		if err != nil {
			return fmt.Errorf("%w: row %d words: %w", persistence.ErrCorrupt, i, err)
		}
		rows[i] = bitset.FromWithLength(uint(bitLen), words)
	}
	if rr.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes after rows", persistence.ErrCorrupt, rr.Len())
	}

	idx.rows = rows
	idx.numHashes = uint(header.NumHashes)
	idx.accessions = uint(header.AccessionCount)
	if idx.logger == nil {
		idx.logger = NoopLogger()
	}
	if idx.metrics == nil {
		idx.metrics = NoopMetricsCollector{}
	}
	return nil
}

// SaveToFile writes the index to filename atomically.
func (idx *Index) SaveToFile(filename string, optFns ...func(*SnapshotOptions)) error {
	start := time.Now()
	o := applySnapshotOptions(optFns)

	data, err := idx.encode(o.Compression)
	if err == nil {
		err = persistence.SaveToFile(filename, func(w io.Writer) error {
			_, werr := w.Write(data)
			return werr
		})
	}

	idx.metrics.RecordSave(len(data), time.Since(start), err)
	idx.logger.LogSave(context.Background(), filename, len(data), err)
	return err
}

// LoadFromFile reads an index snapshot from filename. The file is memory
// mapped for the duration of the decode.
func LoadFromFile(filename string, optFns ...func(*SnapshotOptions)) (*Index, error) {
	o := applySnapshotOptions(optFns)

	m, err := mmap.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("bigsi: open snapshot: %w", err)
	}
	defer m.Close()

	return decodeSnapshot(m.Data, o.IndexOptions)
}

func decodeSnapshot(data []byte, indexOpts []Option) (*Index, error) {
	opts := applyOptions(indexOpts)
	idx := &Index{
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}

// SaveToStore writes the index snapshot and its manifest to a blob store.
func (idx *Index) SaveToStore(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(*SnapshotOptions)) error {
	start := time.Now()
	o := applySnapshotOptions(optFns)

	data, err := idx.encode(o.Compression)
	if err != nil {
		idx.metrics.RecordSave(0, time.Since(start), err)
		return err
	}

	if err := o.Controller.AcquireTransfer(ctx); err != nil {
		return err
	}
	defer o.Controller.ReleaseTransfer()
	if err := o.Controller.AcquireIO(ctx, len(data)); err != nil {
		return err
	}

	if err := store.Put(ctx, name, data); err != nil {
		idx.metrics.RecordSave(len(data), time.Since(start), err)
		idx.logger.LogSave(ctx, name, len(data), err)
		return err
	}

	manifest := Manifest{
		Name:           name,
		FormatVersion:  persistence.Version,
		Rows:           uint64(len(idx.rows)),
		AccessionCount: uint64(idx.accessions),
		NumHashes:      uint32(idx.numHashes),
		Compression:    o.Compression.String(),
		SizeBytes:      int64(len(data)),
		Checksum:       persistence.ComputeChecksum(data),
		Codec:          o.Codec.Name(),
		CreatedAt:      time.Now().UTC(),
	}
	mdata, err := o.Codec.Marshal(manifest)
	if err == nil {
		err = store.Put(ctx, name+ManifestSuffix, mdata)
	}

	idx.metrics.RecordSave(len(data), time.Since(start), err)
	idx.logger.LogSave(ctx, name, len(data), err)
	return err
}

// LoadFromStore reads an index snapshot from a blob store. When a manifest
// sidecar is present, the blob is verified against its recorded checksum
// before decoding; a missing manifest is not an error.
func LoadFromStore(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(*SnapshotOptions)) (*Index, error) {
	start := time.Now()
	o := applySnapshotOptions(optFns)

	if err := o.Controller.AcquireTransfer(ctx); err != nil {
		return nil, err
	}
	defer o.Controller.ReleaseTransfer()

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("bigsi: read snapshot %q: %w", name, err)
	}
	if err := o.Controller.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}

	if manifest, err := LoadManifest(ctx, store, name, optFns...); err == nil {
		if actual := persistence.ComputeChecksum(data); actual != manifest.Checksum {
			return nil, &persistence.ChecksumMismatchError{Expected: manifest.Checksum, Actual: actual}
		}
	}

	idx, err := decodeSnapshot(data, o.IndexOptions)
	if idx != nil {
		idx.metrics.RecordLoad(len(data), time.Since(start), err)
		idx.logger.LogLoad(ctx, name, len(data), err)
	}
	return idx, err
}

// LoadManifest reads and decodes the manifest sidecar for a snapshot.
func LoadManifest(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(*SnapshotOptions)) (*Manifest, error) {
	o := applySnapshotOptions(optFns)

	mdata, err := blobstore.ReadAll(ctx, store, name+ManifestSuffix)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := o.Codec.Unmarshal(mdata, &manifest); err != nil {
		return nil, fmt.Errorf("bigsi: decode manifest %q: %w", name, err)
	}
	return &manifest, nil
}

// PublishCurrent records name as the CURRENT snapshot pointer. On a plain
// store this is a simple blob write; on s3.DDBCommitStore it is an atomic
// versioned commit.
func PublishCurrent(ctx context.Context, store blobstore.BlobStore, name string) error {
	return store.Put(ctx, CurrentKey, []byte(name))
}

// LoadCurrent resolves the CURRENT pointer and loads the snapshot it names.
func LoadCurrent(ctx context.Context, store blobstore.BlobStore, optFns ...func(*SnapshotOptions)) (*Index, error) {
	pointer, err := blobstore.ReadAll(ctx, store, CurrentKey)
	if err != nil {
		return nil, fmt.Errorf("bigsi: resolve current snapshot: %w", err)
	}
	return LoadFromStore(ctx, store, string(pointer), optFns...)
}
