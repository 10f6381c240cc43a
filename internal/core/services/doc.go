// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters) and the extraction pipeline.
//
// Services depend on domain, the ports and the pipeline packages only.
package services
