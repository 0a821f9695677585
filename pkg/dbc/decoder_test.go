package dbc

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords_Example(t *testing.T) {
	h := Header{RecordCount: 2, FieldCount: 2, RecordSize: 8, StringBlockSize: 6}
	s := mustSchema("Names",
		Field{Name: "key", Kind: KindUInt32},
		Field{Name: "name", Kind: KindString},
	)

	strs, err := DecodeStringBlock([]byte("ab\x00cd\x00"), h.StringBlockSize)
	require.NoError(t, err)
	assert.Equal(t, "ab", strs[0])
	assert.Equal(t, "cd", strs[3])

	records := []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0}
	table, err := DecodeRecords(bytes.NewReader(records), h, s, strs)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []uint32{1, 2}, table.Keys())

	rec, ok := table.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), rec.Uint32("key"))
	assert.Equal(t, "ab", rec.Text("name"))

	rec, ok = table.Get(2)
	require.True(t, ok)
	assert.Equal(t, uint32(2), rec.Key())
	assert.Equal(t, "cd", rec.Text("name"))
}

func allKindsSchema() *Schema {
	return mustSchema("Creature",
		Field{Name: "id", Kind: KindUInt32},
		Field{Name: "level", Kind: KindInt32},
		Field{Name: "scale", Kind: KindFloat32},
		Field{Name: "family", Kind: KindByte},
		Field{Name: "model", Kind: KindString},
		Field{Name: "title", Kind: KindLocalizedString},
		Field{Name: "spells", Kind: KindInt32Array, Count: 3},
		Field{Name: "masks", Kind: KindUInt32Array, Count: 2},
		Field{Name: "coords", Kind: KindFloat32Array, Count: 2},
	)
}

type allKindsRow struct {
	id     uint32
	level  int32
	scale  float32
	family uint8
	model  string
	title  string
	spells [3]int32
	masks  [2]uint32
	coords [2]float32
}

// allKindsFile encodes rows with the title placed in locale slot 2.
func allKindsFile(rows []allKindsRow, recordSize uint32) []byte {
	sb := newStringBlock()
	w := &recordWriter{}
	width := int(allKindsSchema().RecordWidth())

	for _, row := range rows {
		model := sb.add(row.model)
		title := sb.add(row.title)
		w.u32(row.id).i32(row.level).f32(row.scale).u8(row.family).u32(model)
		w.u32(0, 0, title, 0, 0, 0, 0).u32(0xFFFF)
		w.i32(row.spells[:]...).u32(row.masks[:]...).f32(row.coords[:]...)
		w.pad(int(recordSize) - width)
	}

	h := Header{
		RecordCount:     uint32(len(rows)),
		FieldCount:      uint32(allKindsSchema().FieldCount()),
		RecordSize:      recordSize,
		StringBlockSize: uint32(len(sb.bytes())),
	}
	return buildFile(h, w.bytes(), sb.bytes())
}

func TestDecode_RoundTrip(t *testing.T) {
	rows := []allKindsRow{
		{
			id: 1, level: -3, scale: 1.5, family: 7, model: "wolf.m2", title: "Wolf",
			spells: [3]int32{100, -200, 0}, masks: [2]uint32{0xDEADBEEF, 1},
			coords: [2]float32{-8913.23, 554.633},
		},
		{
			id: 42, level: 80, scale: float32(math.Inf(1)), family: 255, model: "", title: "Drake",
			spells: [3]int32{math.MaxInt32, math.MinInt32, 1}, masks: [2]uint32{0, math.MaxUint32},
			coords: [2]float32{float32(math.SmallestNonzeroFloat32), -0.0},
		},
	}

	for _, recordSize := range []uint32{77, 80} {
		data := allKindsFile(rows, recordSize)
		file, err := DecodeBytes(data, allKindsSchema())
		require.NoError(t, err, "record size %d", recordSize)

		assert.Equal(t, uint32(len(rows)), file.Header.RecordCount)
		require.Equal(t, len(rows), file.Table.Len())

		for _, row := range rows {
			rec, ok := file.Table.Get(row.id)
			require.True(t, ok)

			assert.Equal(t, UInt32(row.id), rec.Value(0))
			assert.Equal(t, Int32(row.level), rec.Value(1))
			assert.Equal(t, math.Float32bits(row.scale), math.Float32bits(rec.Float32("scale")))
			assert.Equal(t, Byte(row.family), rec.Value(3))
			assert.Equal(t, row.model, rec.Text("model"))
			assert.Equal(t, row.title, rec.Text("title"))

			title, _ := rec.Lookup("title")
			ls := title.(LocalizedString)
			assert.Equal(t, 2, ls.Slot)
			assert.Equal(t, uint32(0xFFFF), ls.Flags)

			assert.Equal(t, Int32Array(row.spells[:]), rec.Value(6))
			assert.Equal(t, UInt32Array(row.masks[:]), rec.Value(7))

			coords := rec.Value(8).(Float32Array)
			require.Len(t, coords, 2)
			for i := range coords {
				assert.Equal(t, math.Float32bits(row.coords[i]), math.Float32bits(coords[i]))
			}
		}
	}
}

func TestDecode_LeavesStreamAtEnd(t *testing.T) {
	data := allKindsFile([]allKindsRow{{id: 9, model: "a", title: "b"}}, 80)
	r := bytes.NewReader(data)

	_, err := Decode(r, allKindsSchema())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestDecode_EmbeddedAtOffset(t *testing.T) {
	data := allKindsFile([]allKindsRow{{id: 3, model: "m", title: "t"}}, 77)
	prefixed := append([]byte("junkjunk"), data...)

	r := bytes.NewReader(prefixed)
	_, err := r.Seek(8, io.SeekStart)
	require.NoError(t, err)

	file, err := Decode(r, allKindsSchema())
	require.NoError(t, err)
	rec, ok := file.Table.Get(3)
	require.True(t, ok)
	assert.Equal(t, "t", rec.Text("title"))
}

func TestDecodeRecords_ConsumesRecordBlockExactly(t *testing.T) {
	s := mustSchema("Padded", Field{Name: "id", Kind: KindUInt32}, Field{Name: "flag", Kind: KindByte})
	h := Header{RecordCount: 3, FieldCount: 2, RecordSize: 8}

	w := &recordWriter{}
	for i := uint32(1); i <= 3; i++ {
		w.u32(i).u8(uint8(i)).pad(3)
	}
	trailer := []byte("\x00tail\x00")
	r := bytes.NewReader(append(w.bytes(), trailer...))

	table, err := DecodeRecords(r, h, s, StringTable{0: ""})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, len(trailer), r.Len())

	rec, _ := table.Get(3)
	assert.Equal(t, Byte(3), rec.Value(1))
}

func TestDecodeRecords_FieldCountMismatch(t *testing.T) {
	s := mustSchema("Names", Field{Name: "key", Kind: KindUInt32}, Field{Name: "name", Kind: KindString})
	h := Header{RecordCount: 1, FieldCount: 3, RecordSize: 12}
	r := bytes.NewReader(make([]byte, 12))

	table, err := DecodeRecords(r, h, s, StringTable{0: ""})
	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSchema))
	assert.Contains(t, err.Error(), "Names")
	assert.Equal(t, 12, r.Len(), "no bytes may be consumed")
}

func TestDecodeRecords_SchemaWiderThanRecord(t *testing.T) {
	s := mustSchema("Wide", Field{Name: "id", Kind: KindUInt32}, Field{Name: "v", Kind: KindUInt32})
	h := Header{RecordCount: 1, FieldCount: 2, RecordSize: 4}

	_, err := DecodeRecords(bytes.NewReader(make([]byte, 8)), h, s, nil)
	assert.True(t, errors.Is(err, ErrInvalidSchema))
}

func TestDecodeRecords_NilSchema(t *testing.T) {
	_, err := DecodeRecords(bytes.NewReader(nil), Header{}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidSchema))
}

func TestDecodeRecords_UnresolvedStringOffset(t *testing.T) {
	s := mustSchema("Names", Field{Name: "key", Kind: KindUInt32}, Field{Name: "name", Kind: KindString})
	h := Header{RecordCount: 2, FieldCount: 2, RecordSize: 8, StringBlockSize: 6}
	strs := StringTable{0: "ab", 3: "cd"}

	w := (&recordWriter{}).u32(1, 0).u32(2, 99)
	table, err := DecodeRecords(bytes.NewReader(w.bytes()), h, s, strs)
	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedStringOffset))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, uint32(99), de.Offset)
	assert.Equal(t, 1, de.Record)
	assert.Equal(t, "name", de.Field)
	assert.Equal(t, "Names", de.Schema)
	assert.Contains(t, err.Error(), "offset 99")
}

func TestDecodeRecords_Truncated(t *testing.T) {
	s := mustSchema("Ids", Field{Name: "id", Kind: KindUInt32})

	testCases := []struct {
		name   string
		header Header
		data   []byte
	}{
		{"missing record", Header{RecordCount: 2, FieldCount: 1, RecordSize: 4}, []byte{1, 0, 0, 0}},
		{"partial record", Header{RecordCount: 1, FieldCount: 1, RecordSize: 4}, []byte{1, 0}},
		{"missing padding", Header{RecordCount: 1, FieldCount: 1, RecordSize: 8}, []byte{1, 0, 0, 0, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			table, err := DecodeRecords(bytes.NewReader(tc.data), tc.header, s, nil)
			assert.Nil(t, table)
			assert.True(t, errors.Is(err, ErrTruncatedStream), "got %v", err)
			assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
		})
	}
}

func TestDecodeRecords_DuplicateKeysLastWins(t *testing.T) {
	s := mustSchema("Dups", Field{Name: "id", Kind: KindUInt32}, Field{Name: "v", Kind: KindInt32})
	h := Header{RecordCount: 3, FieldCount: 2, RecordSize: 8}
	w := (&recordWriter{}).u32(7).i32(1).u32(8).i32(2).u32(7).i32(3)

	table, err := DecodeRecords(bytes.NewReader(w.bytes()), h, s, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 1, table.Duplicates())

	rec, _ := table.Get(7)
	assert.Equal(t, int32(3), rec.Int32("v"))
}

func TestDecodeRecords_SignedAndByteKeys(t *testing.T) {
	signed := mustSchema("Signed", Field{Name: "id", Kind: KindInt32})
	table, err := DecodeRecords(bytes.NewReader((&recordWriter{}).i32(-1).bytes()),
		Header{RecordCount: 1, FieldCount: 1, RecordSize: 4}, signed, nil)
	require.NoError(t, err)
	_, ok := table.Get(math.MaxUint32)
	assert.True(t, ok)

	small := mustSchema("Small", Field{Name: "id", Kind: KindByte})
	table, err = DecodeRecords(bytes.NewReader([]byte{0xAB}),
		Header{RecordCount: 1, FieldCount: 1, RecordSize: 1}, small, nil)
	require.NoError(t, err)
	_, ok = table.Get(0xAB)
	assert.True(t, ok)
}

func TestDecodeRecords_LocalizedStringResolution(t *testing.T) {
	s := mustSchema("Loc", Field{Name: "id", Kind: KindUInt32}, Field{Name: "name", Kind: KindLocalizedString})
	h := Header{RecordCount: 1, FieldCount: 1 + LocalizedStringWords, RecordSize: 4 + LocalizedStringWords*4}

	// 0:"" 1:"enUS" 6:"deDE" 11:""
	strs := StringTable{0: "", 1: "enUS", 6: "deDE", 11: ""}

	testCases := []struct {
		name     string
		offsets  [LocaleSlots]uint32
		wantText string
		wantSlot int
	}{
		{"lowest resolvable slot wins", [LocaleSlots]uint32{0, 0, 1, 6}, "enUS", 2},
		{"order is slot order not offset order", [LocaleSlots]uint32{0, 6, 1}, "deDE", 1},
		{"absent offsets are skipped", [LocaleSlots]uint32{500, 0, 0, 0, 0, 6}, "deDE", 5},
		{"empty strings are skipped", [LocaleSlots]uint32{11, 1}, "enUS", 1},
		{"last slot", [LocaleSlots]uint32{0, 0, 0, 0, 0, 0, 6}, "deDE", 6},
		{"nothing resolves", [LocaleSlots]uint32{}, "", -1},
		{"only absent", [LocaleSlots]uint32{77, 88}, "", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := (&recordWriter{}).u32(1).u32(tc.offsets[:]...).u32(0x1F)
			table, err := DecodeRecords(bytes.NewReader(w.bytes()), h, s, strs)
			require.NoError(t, err)

			rec, _ := table.Get(1)
			v, _ := rec.Lookup("name")
			ls := v.(LocalizedString)
			assert.Equal(t, tc.wantText, ls.Text)
			assert.Equal(t, tc.wantSlot, ls.Slot)
			assert.Equal(t, uint32(0x1F), ls.Flags)
			assert.Equal(t, tc.offsets, ls.Offsets)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	s := mustSchema("Names", Field{Name: "key", Kind: KindUInt32}, Field{Name: "name", Kind: KindString})
	good := buildFile(Header{RecordCount: 1, FieldCount: 2, RecordSize: 8, StringBlockSize: 4},
		(&recordWriter{}).u32(1, 1).bytes(), []byte("\x00ab\x00"))

	t.Run("valid", func(t *testing.T) {
		file, err := DecodeBytes(good, s)
		require.NoError(t, err)
		rec, _ := file.Table.Get(1)
		assert.Equal(t, "ab", rec.Text("name"))
	})

	t.Run("bad signature", func(t *testing.T) {
		data := bytes.Clone(good)
		copy(data, "WDB2")
		_, err := DecodeBytes(data, s)
		assert.True(t, errors.Is(err, ErrInvalidSignature))
	})

	t.Run("short header", func(t *testing.T) {
		_, err := DecodeBytes(good[:10], s)
		assert.True(t, errors.Is(err, ErrTruncatedStream))
	})

	t.Run("short string block", func(t *testing.T) {
		_, err := DecodeBytes(good[:len(good)-1], s)
		assert.True(t, errors.Is(err, ErrTruncatedStream))
	})

	t.Run("field count mismatch", func(t *testing.T) {
		other := mustSchema("Ids", Field{Name: "id", Kind: KindUInt32})
		file, err := DecodeBytes(good, other)
		assert.Nil(t, file)
		assert.True(t, errors.Is(err, ErrInvalidSchema))
	})

	t.Run("malformed string block", func(t *testing.T) {
		data := bytes.Clone(good)
		data[len(data)-2] = 0xff
		_, err := DecodeBytes(data, s)
		assert.True(t, errors.Is(err, ErrMalformedStringBlock))
	})
}

func TestRecord_MarshalJSON(t *testing.T) {
	s := mustSchema("Json",
		Field{Name: "id", Kind: KindUInt32},
		Field{Name: "name", Kind: KindString},
		Field{Name: "values", Kind: KindInt32Array, Count: 2},
	)
	h := Header{RecordCount: 1, FieldCount: 4, RecordSize: 16}
	w := (&recordWriter{}).u32(5, 1).i32(-1, 2)

	table, err := DecodeRecords(bytes.NewReader(w.bytes()), h, s, StringTable{1: "x"})
	require.NoError(t, err)

	rec, _ := table.Get(5)
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"id":5,"name":"x","values":[-1,2]}`, string(out))
}

func TestRecord_MarshalJSON_NonFiniteFloats(t *testing.T) {
	s := mustSchema("Floats",
		Field{Name: "id", Kind: KindUInt32},
		Field{Name: "v", Kind: KindFloat32},
		Field{Name: "coords", Kind: KindFloat32Array, Count: 4},
	)
	h := Header{RecordCount: 1, FieldCount: 6, RecordSize: 24}
	nan := float32(math.NaN())
	w := (&recordWriter{}).u32(1).f32(nan, 1.5, float32(math.Inf(1)), float32(math.Inf(-1)), nan)

	table, err := DecodeRecords(bytes.NewReader(w.bytes()), h, s, nil)
	require.NoError(t, err)

	rec, _ := table.Get(1)
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"v":"NaN","coords":[1.5,"+Inf","-Inf","NaN"]}`, string(out))
}

func TestTable_Range(t *testing.T) {
	s := mustSchema("Ids", Field{Name: "id", Kind: KindUInt32})
	w := (&recordWriter{}).u32(30, 10, 20)
	table, err := DecodeRecords(bytes.NewReader(w.bytes()), Header{RecordCount: 3, FieldCount: 1, RecordSize: 4}, s, nil)
	require.NoError(t, err)

	var seen []uint32
	table.Range(func(key uint32, rec *Record) bool {
		seen = append(seen, key)
		return len(seen) < 2
	})
	assert.Equal(t, []uint32{10, 20}, seen)
	assert.Same(t, s, table.Schema())
}
