package dbc

// Value is a decoded field value. The concrete type is one of Byte, Int32,
// UInt32, Float32, String, LocalizedString, Int32Array, UInt32Array or
// Float32Array.
type Value interface {
	Kind() FieldKind
	value()
}

type (
	Byte         uint8
	Int32        int32
	UInt32       uint32
	Float32      float32
	String       string
	Int32Array   []int32
	UInt32Array  []uint32
	Float32Array []float32
)

// LocalizedString is the resolved text of a localized string field together
// with the locale metadata it was found with.
type LocalizedString struct {
	Text    string              `json:"text"`
	Slot    int                 `json:"slot"` // Index of the slot Text came from, -1 if none resolved
	Flags   uint32              `json:"flags"`
	Offsets [LocaleSlots]uint32 `json:"offsets"`
}

func (Byte) Kind() FieldKind            { return KindByte }
func (Int32) Kind() FieldKind           { return KindInt32 }
func (UInt32) Kind() FieldKind          { return KindUInt32 }
func (Float32) Kind() FieldKind         { return KindFloat32 }
func (String) Kind() FieldKind          { return KindString }
func (LocalizedString) Kind() FieldKind { return KindLocalizedString }
func (Int32Array) Kind() FieldKind      { return KindInt32Array }
func (UInt32Array) Kind() FieldKind     { return KindUInt32Array }
func (Float32Array) Kind() FieldKind    { return KindFloat32Array }

func (Byte) value()            {}
func (Int32) value()           {}
func (UInt32) value()          {}
func (Float32) value()         {}
func (String) value()          {}
func (LocalizedString) value() {}
func (Int32Array) value()      {}
func (UInt32Array) value()     {}
func (Float32Array) value()    {}

// keyOf converts a key field value to the table key.
func keyOf(v Value) (uint32, bool) {
	switch k := v.(type) {
	case Byte:
		return uint32(k), true
	case Int32:
		return uint32(k), true
	case UInt32:
		return uint32(k), true
	default:
		return 0, false
	}
}
