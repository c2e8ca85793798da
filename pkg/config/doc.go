// # Loading
//
// Configuration comes from three places, later ones winning: the YAML file named
// by --config, FRAMEKIT_* environment variables, and command-line flags. This
// package handles the file; the CLI layers env and flags on top with viper.
//
//	cfg, err := config.LoadFile("framekit.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Environment Variable Substitution
//
// ${VAR_NAME} anywhere in the file is replaced by the variable's value before
// parsing; unset variables become empty strings.
//
//	# framekit.yaml
//	engine:
//	  workers: 8
//	  scratch_dir: ${FAST_DISK}/framekit
//	frame:
//	  layout: col
//	output:
//	  summary_threshold: 200000
//	observability:
//	  log_level: info
package config
