package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func Test_Commands(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	dir := t.TempDir()
	common := []string{
		"--store", "disk",
		"--path", filepath.Join(dir, "blocks"),
		"--genesis", filepath.Join(dir, "missing.json"),
		"--difficulty", "1",
	}

	with := func(args ...string) []string {
		return append(args, common...)
	}

	t.Log("Given the need to administer a chain from the command line.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen creating the genesis block.", testID)
		{
			out, err := run(t, with("genesis")...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to create the genesis block : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to create the genesis block.", success, testID)

			if !strings.Contains(out, "genesis block 1") {
				t.Fatalf("\t%s\tTest %d:\tShould report block 1 : %s", failed, testID, out)
			}
			t.Logf("\t%s\tTest %d:\tShould report block 1.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen adding a maintenance record.", testID)
		{
			out, err := run(t, with("add", "--aircraft", "N12345", "--age", "5", "--changed", "Engine,Wing", "--repairs", "Repaired Engine", "--accidents", "None")...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the record : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add the record.", success, testID)

			if !strings.Contains(out, "block 2") {
				t.Fatalf("\t%s\tTest %d:\tShould report block 2 : %s", failed, testID, out)
			}
			t.Logf("\t%s\tTest %d:\tShould report block 2.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen adding a record without an aircraft name.", testID)
		{
			if _, err := run(t, with("add", "--aircraft=", "--changed", "Engine", "--repairs", "Repaired Engine", "--accidents", "None")...); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the record.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the record.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen listing the blocks.", testID)
		{
			out, err := run(t, with("blocks")...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to list the blocks : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to list the blocks.", success, testID)

			if !strings.Contains(out, "Genesis Aircraft") || !strings.Contains(out, "N12345") {
				t.Fatalf("\t%s\tTest %d:\tShould list both blocks : %s", failed, testID, out)
			}
			t.Logf("\t%s\tTest %d:\tShould list both blocks.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen showing a single block.", testID)
		{
			out, err := run(t, with("blocks", "2")...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to show the block : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to show the block.", success, testID)

			if !strings.Contains(out, "Engine, Wing") {
				t.Fatalf("\t%s\tTest %d:\tShould show the changed components : %s", failed, testID, out)
			}
			t.Logf("\t%s\tTest %d:\tShould show the changed components.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen validating the chain.", testID)
		{
			out, err := run(t, with("validate")...)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to validate the chain : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to validate the chain.", success, testID)

			if !strings.Contains(out, "chain valid: 2 blocks") {
				t.Fatalf("\t%s\tTest %d:\tShould report 2 valid blocks : %s", failed, testID, out)
			}
			t.Logf("\t%s\tTest %d:\tShould report 2 valid blocks.", success, testID)
		}
	}
}
