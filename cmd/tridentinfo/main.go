package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/trident/core"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	indent = flag.Bool("indent", false, "Indent the JSON output")
)

// Prints the physical devices visible to Vulkan as JSON, no window needed.
func main() {
	flag.Parse()

	cfg := core.DefaultConfiguration().Instance
	cfg.ApplicationName = "TridentInfo"
	cfg.DebugMode = *debug

	instance, err := core.NewInstance(nil, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer instance.Destroy()

	devices, err := instance.PhysicalDevices()
	if err != nil {
		log.Fatal(err)
	}

	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(devices, "", "  ")
	} else {
		bytes, err = json.Marshal(devices)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stdout, "%s\n", bytes)
}
