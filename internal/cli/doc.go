// Package cli is the efactura command tree:
//
//	efactura fetch --cui RO123 [--cui RO456] --days 60 --dest ./efactura --pdf [--force-login] [--debug]
//	efactura token
//	efactura history --cui RO123
//
// Execute maps errors to the process exit status.
package cli
