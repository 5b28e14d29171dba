// Package config loads the console's configuration.
//
// Settings come from three layers, later ones winning:
//
//  1. defaults from New
//  2. a YAML file, console.yaml by default
//  3. CONSOLE_* environment variables
//
// # Configuration File Structure
//
//	server:
//	  addr: ":8080"
//	backend:
//	  base_url: "https://api.clinic.example/api"
//	  timeout: 30s
//	table:
//	  page_sizes: [10, 20, 30, 50]
//	  default_page_size: 10
//	  search_delay: 1s
//	  sort_cycle: tristate
//	auth:
//	  allowed_roles: [owner]
//	i18n:
//	  default_locale: en
//	  locales: [en, ar]
//
// Every key has an environment override named after its path, for example
// CONSOLE_BACKEND_BASE_URL or CONSOLE_TABLE_PAGE_SIZES=10,25.
//
// # Usage
//
//	cfg, err := config.Load("console.yaml")
//	if err != nil {
//	    errors.Print(os.Stderr, err)
//	    os.Exit(1)
//	}
package config
