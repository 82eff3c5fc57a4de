package main

import (
	"log"

	"github.com/spf13/cobra"

	"airquality-go/config"
)

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Verify sensor identities and print hardware details",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// openStation already runs every identity/boot sequence; what
			// follows is reporting.
			st, err := openStation(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if st.bmp != nil {
				id, err := st.bmp.ChipID()
				if err != nil {
					return err
				}
				log.Printf("bmp280: chip id %#02x", id)
			}
			if st.ccs != nil {
				cs, err := st.ccs.Status()
				if err != nil {
					return err
				}
				log.Printf("ccs811: app running %v, error pending %v", cs.AppOn, cs.Error)
			}
			if st.hdc != nil {
				sn, err := st.hdc.SerialNumber()
				if err != nil {
					return err
				}
				low, err := st.hdc.Battery()
				if err != nil {
					return err
				}
				log.Printf("hdc1080: serial %#012x, battery low %v", sn, low)
			}
			if st.pms != nil {
				f, err := st.pms.Read()
				if err != nil {
					return err
				}
				log.Printf("pms7003: firmware %#02x, error byte %#02x", f.Version, f.Error)
			}
			if st.co2 != nil {
				id, err := st.co2.TypeID()
				if err != nil {
					return err
				}
				fw, err := st.co2.FirmwareVersion()
				if err != nil {
					return err
				}
				sn, err := st.co2.SerialNumber()
				if err != nil {
					return err
				}
				code, err := st.co2.ErrorCode()
				if err != nil {
					return err
				}
				log.Printf("s8: type %#08x, firmware %s, serial %#08x, status %#04x", id, fw, sn, code)
			}
			return nil
		},
	}
}
