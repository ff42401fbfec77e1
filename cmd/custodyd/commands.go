package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/app"
	custodyapp "github.com/iov-one/custody/cmd/custodyd/app"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/x/escrow"
	"github.com/iov-one/custody/x/metadata"
	"github.com/iov-one/custody/x/sigs"
	"github.com/iov-one/custody/x/staking"
	"github.com/iov-one/custody/x/token"
	"github.com/iov-one/custody/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"golang.org/x/crypto/ed25519"
)

func address(c *cli.Context, name string) (custody.Address, error) {
	addr, err := custody.ParseAddress(c.String(name))
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", name)
	}
	return addr, nil
}

func printJSON(w io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

type derived struct {
	Address custody.Address `json:"address"`
	Bump    *uint8          `json:"bump,omitempty"`
}

func printDerived(c *cli.Context, addr custody.Address, bump uint8, err error) error {
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, derived{Address: addr, Bump: &bump})
}

func runDeriveEscrow(c *cli.Context) error {
	maker, err := address(c, "maker")
	if err != nil {
		return err
	}
	addr, bump, err := escrow.EscrowAddress(maker, c.Uint64("seed"))
	return printDerived(c, addr, bump, err)
}

func runDeriveStake(c *cli.Context) error {
	mint, err := address(c, "mint")
	if err != nil {
		return err
	}
	config, _, err := staking.ConfigAddress()
	if err != nil {
		return err
	}
	addr, bump, err := staking.StakeAddress(mint, config)
	return printDerived(c, addr, bump, err)
}

func runDeriveUser(c *cli.Context) error {
	owner, err := address(c, "owner")
	if err != nil {
		return err
	}
	addr, bump, err := staking.UserAddress(owner)
	return printDerived(c, addr, bump, err)
}

func runDeriveConfig(c *cli.Context) error {
	addr, bump, err := staking.ConfigAddress()
	return printDerived(c, addr, bump, err)
}

func runDeriveATA(c *cli.Context) error {
	owner, err := address(c, "owner")
	if err != nil {
		return err
	}
	mint, err := address(c, "mint")
	if err != nil {
		return err
	}
	addr, err := token.AssociatedAddress(owner, mint)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, derived{Address: addr})
}

func runDeriveMetadata(c *cli.Context) error {
	mint, err := address(c, "mint")
	if err != nil {
		return err
	}
	addr, bump, err := metadata.MetadataAddress(mint)
	return printDerived(c, addr, bump, err)
}

func runDeriveEdition(c *cli.Context) error {
	mint, err := address(c, "mint")
	if err != nil {
		return err
	}
	addr, bump, err := metadata.EditionAddress(mint)
	return printDerived(c, addr, bump, err)
}

func runKeygen(c *cli.Context) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, struct {
		Seed    string          `json:"seed"`
		Address custody.Address `json:"address"`
	}{
		Seed:    hex.EncodeToString(priv.Seed()),
		Address: custody.Address(pub),
	})
}

func openRunner(c *cli.Context, metrics *utils.Metrics) (*app.Runner, error) {
	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	path := dbPath(c)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	return custodyapp.NewRunner(path, metrics, logger)
}

func runInit(c *cli.Context) error {
	gen, err := app.LoadGenesis(c.String("genesis"))
	if err != nil {
		return err
	}
	runner, err := openRunner(c, nil)
	if err != nil {
		return err
	}
	defer runner.Close()
	id, err := runner.InitChain(gen, custodyapp.Initializers())
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, struct {
		ChainID string `json:"chain_id"`
		Height  int64  `json:"height"`
		Hash    string `json:"hash"`
	}{gen.ChainID, id.Version, hex.EncodeToString(id.Hash)})
}

func readTx(path string) (*custodyapp.Tx, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrHuman, "read %s: %s", path, err)
	}
	tx, err := custodyapp.TxFromJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return tx, nil
}

func runSign(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.Wrap(errors.ErrHuman, "exactly one transaction file expected")
	}
	seed, err := hex.DecodeString(c.String("key"))
	if err != nil || len(seed) != ed25519.SeedSize {
		return errors.Wrap(errors.ErrInvalidInput, "--key must be a hex encoded 32 byte seed")
	}
	key := ed25519.NewKeyFromSeed(seed)

	path := c.Args().First()
	tx, err := readTx(path)
	if err != nil {
		return err
	}
	runner, err := openRunner(c, nil)
	if err != nil {
		return err
	}
	defer runner.Close()
	seq, err := sigs.Sequence(runner.Store(), key.Public().(ed25519.PublicKey))
	if err != nil {
		return err
	}
	// signatures already on the transaction are from other keys of
	// the same block
	if err := tx.Sign(key, runner.ChainID(), seq); err != nil {
		return err
	}
	raw, err := custodyapp.TxToJSON(tx)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, raw, 0600)
}

type applied struct {
	File  string `json:"file"`
	Data  string `json:"data,omitempty"`
	Log   string `json:"log,omitempty"`
	Error string `json:"error,omitempty"`
	Code  uint32 `json:"code"`
}

func runApply(c *cli.Context) error {
	blockTime := time.Now().UTC()
	if t := c.String("time"); t != "" {
		var err error
		if blockTime, err = time.Parse(time.RFC3339, t); err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "--time: %s", err)
		}
	}

	metrics, err := utils.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	runner, err := openRunner(c, metrics)
	if err != nil {
		return err
	}
	defer runner.Close()

	results := make([]applied, 0, c.NArg())
	for _, path := range c.Args() {
		tx, err := readTx(path)
		if err != nil {
			return err
		}
		res, err := runner.Deliver(blockTime, tx)
		out := applied{File: path, Code: errors.Code(err)}
		if err != nil {
			out.Error = errors.Redact(err).Error()
		} else {
			out.Data = custody.Address(res.Data).String()
			out.Log = res.Log
		}
		results = append(results, out)
	}
	id, err := runner.Commit()
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, struct {
		Height  int64     `json:"height"`
		Hash    string    `json:"hash"`
		Results []applied `json:"results"`
	}{id.Version, hex.EncodeToString(id.Hash), results})
}
