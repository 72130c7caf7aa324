/*
Package workers sizes worker pools in containerized environments.

Go sets GOMAXPROCS from the container CPU limit, while runtime.NumCPU still
reports the host. Count and its helpers derive worker counts from GOMAXPROCS
so a pod limited to 2 CPUs on a 64-core node runs 2 thumbnail workers, not 64.

	numWorkers := workers.ForCPU(8) // thumbnail warmer, at most 8
	numWorkers := workers.Count(2.0, 16) // I/O bound work

The THUMBNAIL_WORKERS environment variable overrides the calculation. The
limit still applies to the override. Values that are not positive integers
are logged and ignored.
*/
package workers
