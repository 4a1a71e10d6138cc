// Package discovery resolves the IP address of a register-access target.
//
// The address override given at startup is either a literal IPv4 address
// or "mdns:<instance>", in which case the instance is looked up with
// multicast DNS among services of type ServiceType.
package discovery
