package storage_test

import (
	"context"
	"testing"

	"github.com/aeroledger/aeroledger/foundation/blockchain/storage"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Open(t *testing.T) {
	type table struct {
		name string
		cfg  func(dir string) storage.Config
	}

	tt := []table{
		{name: "memory", cfg: func(string) storage.Config { return storage.Config{Kind: storage.KindMemory} }},
		{name: "disk", cfg: func(dir string) storage.Config { return storage.Config{Kind: storage.KindDisk, Path: dir} }},
		{name: "leveldb", cfg: func(dir string) storage.Config { return storage.Config{Kind: storage.KindLevelDB, Path: dir} }},
	}

	t.Log("Given the need to open each local storage kind.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling kind %q.", testID, tst.name)
				{
					strg, err := storage.Open(context.Background(), tst.cfg(t.TempDir()))
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to open the storage: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to open the storage.", success, testID)

					if err := strg.Close(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to close the storage: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to close the storage.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}

	t.Log("Given the need to reject unknown storage kinds.")
	{
		testID := len(tt)
		t.Logf("\tTest %d:\tWhen handling kind %q.", testID, "sqlite")
		{
			if _, err := storage.Open(context.Background(), storage.Config{Kind: "sqlite"}); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould receive an error for an unknown kind.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould receive an error for an unknown kind.", success, testID)
		}
	}
}
