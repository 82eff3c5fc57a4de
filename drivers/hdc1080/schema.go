package hdc1080

import "airquality-go/regmap"

// Register map per the TI HDC1080 datasheet, section 8.6. The
// "measurement" entry is the 4-byte sequenced-acquisition window
// overlaying the temperature register; it is decoded from a plain read,
// never addressed directly.
var schema = regmap.MustSchema(regmap.SchemaDef{
	Part: "hdc1080",
	Registers: []regmap.RegisterDef{
		{
			Name: "temperature", Addr: 0x00, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "temperature", Codec: regmap.Scaled(16, false, 165.0/65536, -40)},
			},
		},
		{
			Name: "humidity", Addr: 0x01, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "humidity", Codec: regmap.Scaled(16, false, 100.0/65536, 0)},
			},
		},
		{
			Name: "measurement", Addr: 0x00, Bytes: 4, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "temperature", Offset: 16, Codec: regmap.Scaled(16, false, 165.0/65536, -40)},
				{Name: "humidity", Offset: 0, Codec: regmap.Scaled(16, false, 100.0/65536, 0)},
			},
		},
		{
			Name: "config", Addr: 0x02, Bytes: 2,
			Fields: []regmap.FieldDef{
				{Name: "rst", Offset: 15, Codec: regmap.Flag(), Doc: "self-clearing software reset"},
				{Name: "heat", Offset: 13, Codec: regmap.Flag()},
				{Name: "mode", Offset: 12, Codec: regmap.Flag(), Doc: "1 = temperature and humidity in sequence"},
				{Name: "btst", Offset: 11, Codec: regmap.Flag(), Access: regmap.ReadOnly},
				{Name: "tres", Offset: 10, Codec: regmap.Enum(1, map[any]uint64{14: 0, 11: 1})},
				{Name: "hres", Offset: 8, Codec: regmap.Enum(2, map[any]uint64{14: 0, 11: 1, 8: 2})},
			},
		},
		{
			Name: "serial_first", Addr: 0xFB, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{{Name: "serial_first", Codec: regmap.Uint(16)}},
		},
		{
			Name: "serial_mid", Addr: 0xFC, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{{Name: "serial_mid", Codec: regmap.Uint(16)}},
		},
		{
			Name: "serial_last", Addr: 0xFD, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{{Name: "serial_last", Codec: regmap.Uint(16)}},
		},
		{
			Name: "manufacturer_id", Addr: 0xFE, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{{Name: "manufacturer_id", Codec: regmap.Uint(16)}},
		},
		{
			Name: "device_id", Addr: 0xFF, Bytes: 2, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{{Name: "device_id", Codec: regmap.Uint(16)}},
		},
	},
})

// Schema returns the shared part description.
func Schema() *regmap.Schema { return schema }
