// Package minio stores snapshots on MinIO and other S3-compatible servers
// (Ceph, SeaweedFS, Garage) through minio-go, without the AWS SDK.
//
//	store, err := minio.New("localhost:9000", "snapshots", func(o *minio.Options) {
//	    o.AccessKey, o.SecretKey = "minioadmin", "minioadmin"
//	    o.Prefix = "worlds"
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr := persistence.NewManager(store)
package minio
