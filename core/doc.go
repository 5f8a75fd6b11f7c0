// Package core contains the authenticated request pipeline shared by every
// Talo resource: configuration, the request executor, the transport and
// credential contracts, and the normalized error envelope. Resource wrappers
// and adapters depend on this package; core must not depend on them.
package core
