// Package config loads toastkit configuration files for the toastsim
// command.
//
// A config file is named toastkit.json, toastkit.toml or toastkit.yaml and
// holds the provider defaults. Durations are whole milliseconds.
//
// # Configuration File Structure
//
//	{
//	  "channel": "default",
//	  "autoDismiss": true,
//	  "autoDismissTimeoutMs": 5000,
//	  "placement": "top-right",
//	  "transitionDurationMs": 220,
//	  "newestOnTop": false,
//	  "pauseOnHover": true,
//	  "logLevel": "info"
//	}
//
// The same keys are used in TOML and YAML.
//
// # Usage
//
//	cfg, err := config.Load("toastkit.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tc, err := cfg.ToastConfig()
package config
