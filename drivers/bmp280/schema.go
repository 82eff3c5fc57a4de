package bmp280

import "airquality-go/regmap"

// Register map per the Bosch BMP280 datasheet, section 4.
var schema = regmap.MustSchema(regmap.SchemaDef{
	Part: "bmp280",
	Registers: []regmap.RegisterDef{
		{
			Name: "chip_id", Addr: 0xD0, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "chip_id", Codec: regmap.Uint(8)},
			},
		},
		{
			Name: "reset", Addr: 0xE0, Access: regmap.WriteOnly,
			Fields: []regmap.FieldDef{
				{Name: "reset", Codec: regmap.Uint(8), Doc: "write 0xB6 to trigger a power-on reset"},
			},
		},
		{
			Name: "status", Addr: 0xF3, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "measuring", Offset: 3, Codec: regmap.Flag()},
				{Name: "im_update", Offset: 0, Codec: regmap.Flag()},
			},
		},
		{
			Name: "ctrl_meas", Addr: 0xF4,
			Fields: []regmap.FieldDef{
				{Name: "osrs_t", Offset: 5, Codec: regmap.Enum(3, oversampling)},
				{Name: "osrs_p", Offset: 2, Codec: regmap.Enum(3, oversampling)},
				{Name: "mode", Offset: 0, Codec: regmap.Enum(2, map[any]uint64{
					ModeSleep: 0, ModeForced: 2, ModeNormal: 3,
				})},
			},
		},
		{
			Name: "config", Addr: 0xF5,
			Fields: []regmap.FieldDef{
				{Name: "t_sb", Offset: 5, Codec: regmap.Enum(3, map[any]uint64{
					0.5: 0, 62.5: 1, 125: 2, 250: 3, 500: 4, 1000: 5, 2000: 6, 4000: 7,
				}), Doc: "normal-mode standby period in ms"},
				{Name: "filter", Offset: 2, Codec: regmap.Enum(3, map[any]uint64{
					0: 0, 2: 1, 4: 2, 8: 3, 16: 4,
				}), Doc: "IIR filter time constant"},
				{Name: "spi3w_en", Offset: 0, Codec: regmap.Flag()},
			},
		},
		{
			// Burst read of both ADC outputs. The two 20-bit readings are
			// left-aligned in their 3-byte windows (xlsb bits 7..4).
			Name: "data", Addr: 0xF7, Bytes: 6, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "pressure", Offset: 28, Codec: regmap.Uint(20)},
				{Name: "temperature", Offset: 4, Codec: regmap.Uint(20)},
			},
		},
		{
			// Factory trimming block. Non-volatile, read once per instance.
			Name: "calibration", Addr: 0x88, Bytes: 24, Access: regmap.ReadOnly,
			Order: regmap.LittleEndian,
			Fields: []regmap.FieldDef{
				{Name: "dig_t1", Offset: 0, Codec: regmap.Uint(16)},
				{Name: "dig_t2", Offset: 16, Codec: regmap.Int(16)},
				{Name: "dig_t3", Offset: 32, Codec: regmap.Int(16)},
				{Name: "dig_p1", Offset: 48, Codec: regmap.Uint(16)},
				{Name: "dig_p2", Offset: 64, Codec: regmap.Int(16)},
				{Name: "dig_p3", Offset: 80, Codec: regmap.Int(16)},
				{Name: "dig_p4", Offset: 96, Codec: regmap.Int(16)},
				{Name: "dig_p5", Offset: 112, Codec: regmap.Int(16)},
				{Name: "dig_p6", Offset: 128, Codec: regmap.Int(16)},
				{Name: "dig_p7", Offset: 144, Codec: regmap.Int(16)},
				{Name: "dig_p8", Offset: 160, Codec: regmap.Int(16)},
				{Name: "dig_p9", Offset: 176, Codec: regmap.Int(16)},
			},
		},
	},
})

// oversampling maps measurement counts to the 3-bit osrs pattern.
// 0 means the measurement is skipped and its ADC output reads 0x80000.
var oversampling = map[any]uint64{0: 0, 1: 1, 2: 2, 4: 3, 8: 4, 16: 5}

// Schema returns the shared part description.
func Schema() *regmap.Schema { return schema }
