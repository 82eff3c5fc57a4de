// Command airmon polls the station's sensors and prints readings.
//
//	airmon sample --config station.yaml
//	airmon probe  --config station.yaml
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	root := &cobra.Command{
		Use:           "airmon",
		Short:         "Air quality station sampler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "station.yaml", "station configuration file")
	root.AddCommand(sampleCmd(), probeCmd())

	if err := root.Execute(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}
