// Package hcl provides the HCL implementation of config.Loader. It parses
// rule files with autoregister/registerInfo blocks and translates each
// registerInfo block into a config.Descriptor.
package hcl
