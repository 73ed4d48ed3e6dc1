package main

import (
	// Import all backend modules to trigger their init() functions
	_ "github.com/msnfinder/msnfinder/pkg/backends/duckduckgo"
	_ "github.com/msnfinder/msnfinder/pkg/backends/github"
	_ "github.com/msnfinder/msnfinder/pkg/backends/google"
)
