package peer_test

import (
	"errors"
	"testing"

	"github.com/noobcash/blockchain/foundation/blockchain/database"
	"github.com/noobcash/blockchain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name     string
		contacts []peer.Contact
	}

	tt := []table{
		{
			name: "basic",
			contacts: []peer.Contact{
				peer.New("host0", "key0"),
				peer.New("host1", "key1"),
				peer.New("host2", "key2"),
			},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			reg := peer.NewRegistry(len(tst.contacts))

			for i, contact := range tst.contacts {
				added, err := reg.Set(i, contact)
				if err != nil {
					t.Fatalf("Test %s:\tShould be able to set the contact: %s", tst.name, err)
				}
				if !added {
					t.Fatalf("Test %s:\tShould report a new registration.", tst.name)
				}
			}

			if added, _ := reg.Set(1, tst.contacts[1]); added {
				t.Fatalf("Test %s:\tShould not count a registration twice.", tst.name)
			}

			if reg.Registered() != len(tst.contacts) {
				t.Logf("Test %s:\tgot: %d", tst.name, reg.Registered())
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.contacts))
				t.Fatalf("Test %s:\tShould get back the right registration count.", tst.name)
			}

			peers := reg.Others(1)
			if len(peers) != len(tst.contacts)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.contacts)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			for _, p := range peers {
				if p.ID == 1 {
					t.Fatalf("Test %s:\tShould exclude the node itself.", tst.name)
				}
			}

			if _, err := reg.Set(len(tst.contacts), peer.New("x", "y")); !errors.Is(err, peer.ErrUnknownID) {
				t.Fatalf("Test %s:\tShould reject an id outside the registry.", tst.name)
			}

			if id := reg.IndexOf("key2"); id != 2 {
				t.Logf("Test %s:\tgot: %d", tst.name, id)
				t.Logf("Test %s:\texp: %d", tst.name, 2)
				t.Fatalf("Test %s:\tShould find the contact by public key.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Redistribute(t *testing.T) {
	reg := peer.NewRegistry(2)
	reg.Set(0, peer.New("host0", "key0"))
	reg.Set(1, peer.New("host1", "key1"))

	reg.Credit(0, database.TxOutput{ID: "stale:0", Recipient: "key0", Amount: 5})

	reg.Redistribute([]database.TxOutput{
		{ID: "a:0", Recipient: "key1", Amount: 3},
		{ID: "a:1", Recipient: "key0", Amount: 7},
		{ID: "b:0", Recipient: "unknown", Amount: 1},
	})

	c0, _ := reg.Get(0)
	if len(c0.UTXO) != 1 || c0.UTXO[0].ID != "a:1" {
		t.Logf("got: %v", c0.UTXO)
		t.Fatalf("Should replace the outputs of the contact.")
	}

	c1, _ := reg.Get(1)
	if len(c1.UTXO) != 1 || c1.UTXO[0].Amount != 3 {
		t.Logf("got: %v", c1.UTXO)
		t.Fatalf("Should credit the outputs to their recipient.")
	}
}

func Test_RegisterAgain(t *testing.T) {
	reg := peer.NewRegistry(2)
	reg.Set(0, peer.New("host0", "key0"))
	reg.Set(1, peer.New("host1", "key1"))

	out := database.TxOutput{ID: "gift:0", Recipient: "key1", Amount: 100}
	if err := reg.Credit(1, out); err != nil {
		t.Fatalf("Should be able to credit the contact: %s", err)
	}

	added, err := reg.Set(1, peer.New("host1:9080", "key1"))
	if err != nil {
		t.Fatalf("Should be able to register again: %s", err)
	}
	if added {
		t.Fatalf("Should not count a repeated registration as new.")
	}

	c1, _ := reg.Get(1)
	if len(c1.UTXO) != 1 || c1.UTXO[0].ID != out.ID {
		t.Logf("got: %v", c1.UTXO)
		t.Logf("exp: %v", []database.TxOutput{out})
		t.Fatalf("Should keep the outputs credited before the repeated registration.")
	}

	if c1.Host != "host1:9080" {
		t.Logf("got: %s", c1.Host)
		t.Logf("exp: %s", "host1:9080")
		t.Fatalf("Should update the host of the contact.")
	}

	if reg.Registered() != 2 {
		t.Logf("got: %d", reg.Registered())
		t.Logf("exp: %d", 2)
		t.Fatalf("Should keep the registration count.")
	}
}
