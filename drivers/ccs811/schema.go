package ccs811

import "airquality-go/regmap"

// Application-mode register map per the CCS811 datasheet, section 5.
// Mailbox 0xF4 (APP_START) is a zero-length command and is issued
// directly on the transport rather than modelled here.
var schema = regmap.MustSchema(regmap.SchemaDef{
	Part: "ccs811",
	Registers: []regmap.RegisterDef{
		{
			Name: "status", Addr: 0x00, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "fw_mode", Offset: 7, Codec: regmap.Flag()},
				{Name: "app_valid", Offset: 4, Codec: regmap.Flag()},
				{Name: "data_ready", Offset: 3, Codec: regmap.Flag()},
				{Name: "error", Offset: 0, Codec: regmap.Flag()},
			},
		},
		{
			Name: "meas_mode", Addr: 0x01,
			Fields: []regmap.FieldDef{
				{Name: "drive_mode", Offset: 4, Codec: regmap.Enum(3, map[any]uint64{
					ModeIdle: 0, Mode1s: 1, Mode10s: 2, Mode60s: 3, Mode250ms: 4,
				})},
				{Name: "int_datardy", Offset: 3, Codec: regmap.Flag()},
				{Name: "int_thresh", Offset: 2, Codec: regmap.Flag()},
			},
		},
		{
			Name: "alg_result", Addr: 0x02, Bytes: 4, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "eco2", Offset: 16, Codec: regmap.Uint(16)},
				{Name: "etvoc", Offset: 0, Codec: regmap.Uint(16)},
			},
		},
		{
			// Compensation inputs in 1/512 steps; temperature carries a
			// +25 degC bias on the wire.
			Name: "env_data", Addr: 0x05, Bytes: 4, Access: regmap.WriteOnly,
			Fields: []regmap.FieldDef{
				{Name: "humidity", Offset: 16, Codec: regmap.Scaled(16, false, 1.0/512, 0)},
				{Name: "temperature", Offset: 0, Codec: regmap.Scaled(16, false, 1.0/512, -25)},
			},
		},
		{
			Name: "baseline", Addr: 0x11, Bytes: 2,
			Fields: []regmap.FieldDef{
				{Name: "baseline", Codec: regmap.Uint(16), Doc: "opaque correction word"},
			},
		},
		{
			Name: "hw_id", Addr: 0x20, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "hw_id", Codec: regmap.Uint(8)},
			},
		},
		{
			Name: "error_id", Addr: 0xE0, Access: regmap.ReadOnly,
			Fields: []regmap.FieldDef{
				{Name: "error_id", Codec: regmap.Uint(8)},
			},
		},
	},
})

// Schema returns the shared part description.
func Schema() *regmap.Schema { return schema }
