package app

import (
	"encoding/json"
	"fmt"

	"github.com/iov-one/weft"
	"github.com/iov-one/weft/crypto"
	"github.com/iov-one/weft/x/escrow"
)

// OracleQueue is the randomness oracle queue configured by GenInitOptions.
var OracleQueue = weft.NewCondition("oracle", "queue", []byte("default")).Address()

type genesisMint struct {
	Name      string       `json:"name"`
	Decimals  uint32       `json:"decimals"`
	Authority weft.Address `json:"authority"`
}

type genesisBalance struct {
	Owner  weft.Address `json:"owner"`
	Mint   string       `json:"mint"`
	Amount uint64       `json:"amount"`
}

type genesisQueue struct {
	Name        string         `json:"name"`
	Admin       weft.Address   `json:"admin"`
	Capacity    uint32         `json:"capacity"`
	Authorities []weft.Address `json:"authorities"`
}

// GenInitOptions will produce some basic options for one rich account,
// the escrow task queue and the randomness oracle, to use for dev mode.
//
// An address can be passed as the first argument. If none is given, a new
// key is generated and printed out.
func GenInitOptions(args []string) (json.RawMessage, error) {
	var addr weft.Address
	if len(args) > 0 {
		a, err := weft.ParseAddress(args[0])
		if err != nil {
			return nil, err
		}
		addr = a
	} else {
		a, keys, err := GenerateCoinKey()
		if err != nil {
			return nil, err
		}
		addr = a
		fmt.Println(keys)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	queueAuthority, _, err := escrow.FindQueueAuthority()
	if err != nil {
		return nil, err
	}

	metadata := &weft.Metadata{Schema: 1}
	state := map[string]interface{}{
		"tokens": map[string]interface{}{
			"mints": []genesisMint{
				{Name: "AAA", Decimals: 6, Authority: addr},
				{Name: "BBB", Decimals: 6, Authority: addr},
			},
			"balances": []genesisBalance{
				{Owner: addr, Mint: "AAA", Amount: 1000000000},
				{Owner: addr, Mint: "BBB", Amount: 1000000000},
			},
		},
		"cron": map[string]interface{}{
			"queues": []genesisQueue{
				{
					Name:        escrow.DefaultTaskQueue,
					Admin:       addr,
					Capacity:    1024,
					Authorities: []weft.Address{queueAuthority},
				},
			},
		},
		"conf": map[string]interface{}{
			"escrow": escrow.DefaultConfiguration(),
			"randomness": map[string]interface{}{
				"metadata":        metadata,
				"oracle_identity": addr,
				"oracle_queue":    OracleQueue,
			},
		},
	}
	return json.MarshalIndent(state, "", "  ")
}

type output struct {
	Pubkey *crypto.PublicKey  `json:"pub_key"`
	Secret *crypto.PrivateKey `json:"secret"`
}

// GenerateCoinKey returns the address of a public key,
// along with a json representation of the keys.
func GenerateCoinKey() (weft.Address, string, error) {
	privKey := crypto.GenPrivKeyEd25519()
	pubKey := privKey.PublicKey()
	addr := pubKey.Address()

	out := output{Pubkey: pubKey, Secret: privKey}
	keys, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return addr, string(keys), nil
}
