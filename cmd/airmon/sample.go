package main

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"

	"airquality-go/config"
	"airquality-go/drivers/ccs811"
	"airquality-go/errcode"
)

func sampleCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Poll the enabled sensors on the configured period",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			st, err := openStation(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			return runSampler(st, count)
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "number of sampling rounds, 0 for forever")
	return cmd
}

func runSampler(st *station, count int) error {
	ticker := time.NewTicker(st.cfg.Period())
	defer ticker.Stop()

	for done := 0; ; {
		sampleOnce(st)
		done++
		if count > 0 && done >= count {
			return nil
		}
		<-ticker.C
	}
}

// sampleOnce polls every sensor and logs one line each. A failing
// sensor is logged with its error class and skipped; the others still
// report.
func sampleOnce(st *station) {
	var ambientC, ambientRH float64
	haveAmbient := false

	if st.hdc != nil {
		m, err := st.hdc.Read()
		if err != nil {
			logErr("hdc1080", err)
		} else {
			ambientC, ambientRH, haveAmbient = m.Celsius, m.Humidity, true
			log.Printf("hdc1080: %.2f C  %.1f %%RH", m.Celsius, m.Humidity)
		}
	}

	if st.bmp != nil {
		m, err := st.bmp.Measure()
		if err != nil {
			logErr("bmp280", err)
		} else {
			log.Printf("bmp280: %.2f C  %.1f Pa", m.Celsius(), m.Pascal)
			if !haveAmbient {
				ambientC, haveAmbient = m.Celsius(), true
				ambientRH = 50 // no humidity source; assume the midpoint
			}
		}
	}

	if st.ccs != nil {
		if haveAmbient {
			if err := st.ccs.SetEnvironment(ambientC, ambientRH); err != nil {
				logErr("ccs811", err)
			}
		}
		r, err := st.ccs.ReadAlgorithm()
		switch {
		case errors.Is(err, ccs811.ErrNoData):
			// Between drive-mode samples; nothing to report.
		case err != nil:
			logErr("ccs811", err)
		default:
			log.Printf("ccs811: eCO2 %d ppm  eTVOC %d ppb", r.ECO2, r.ETVOC)
		}
	}

	if st.pms != nil {
		f, err := st.pms.Read()
		if err != nil {
			logErr("pms7003", err)
		} else {
			log.Printf("pms7003: PM1.0 %d  PM2.5 %d  PM10 %d ug/m3", f.PM1Atm, f.PM2_5Atm, f.PM10Atm)
		}
	}

	if st.co2 != nil {
		ppm, err := st.co2.CO2()
		if err != nil {
			logErr("s8", err)
		} else {
			log.Printf("s8: CO2 %d ppm", ppm)
		}
	}
}

func logErr(sensor string, err error) {
	log.Printf("%s: %v [%s]", sensor, err, errcode.Of(err))
}
