//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Command yaogc runs a generator and an evaluator against a boolean
// circuit over an in-process connection, exercising the full
// generate/transfer/evaluate pipeline: oblivious transfer for
// evaluator inputs and garbled-gate streaming for generator inputs and
// internal gates. Each side keeps a running hash of the garbled-gate
// stream; the two sums are not compared, and -d prints each side's
// sum at the end of a run.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kalervo-j/yaogc/circuit"
	"github.com/kalervo-j/yaogc/env"
	"github.com/kalervo-j/yaogc/garble"
	"github.com/kalervo-j/yaogc/ot"
	"github.com/kalervo-j/yaogc/p2p"
)

// fullAdder is the built-in demonstration circuit when no -circ file
// is given: a one-bit full adder with the generator contributing the
// two addend bits and the evaluator contributing the carry-in.
const fullAdder = `8 8
2 1
gen_inp 0
gen_inp 1
evl_inp 2
gate2 int 3 0 1 0110
gate2 evl_out 4 3 2 0110
gate2 int 5 0 1 0001
gate2 int 6 2 3 0001
gate2 gen_out 7 5 6 0111
`

func main() {
	circPath := flag.String("circ", "", "Circuit file (defaults to a built-in full adder)")
	genBitsFlag := flag.String("gen-inputs", "1,0", "Comma-separated generator input bits")
	evlBitsFlag := flag.String("evl-inputs", "1", "Comma-separated evaluator input bits")
	k := flag.Int("k", 128, "Security parameter in bits")
	commit := flag.Bool("commit", false, "Run the generator in cut-and-choose commit mode")
	listen := flag.String("listen", "", "Run as the generator, listening on this address for a TCP peer instead of an in-process pipe")
	connect := flag.String("connect", "", "Run as the evaluator, dialing this address instead of an in-process pipe")
	fVerbose := flag.Bool("v", false, "Verbose output")
	fDebug := flag.Bool("d", false, "Debug output")
	flag.Parse()

	verbose = *fVerbose
	debug = *fDebug

	circ, err := loadCircuit(*circPath)
	if err != nil {
		log.Fatalf("failed to load circuit: %s", err)
	}
	genBits, err := parseBits(*genBitsFlag)
	if err != nil {
		log.Fatalf("invalid -gen-inputs: %s", err)
	}
	evlBits, err := parseBits(*evlBitsFlag)
	if err != nil {
		log.Fatalf("invalid -evl-inputs: %s", err)
	}

	cfg := garble.Config{
		K:       *k,
		FreeXOR: true,
		GRR:     true,
	}
	envCfg := &env.Config{}

	if verbose {
		fmt.Printf("Circuit: %s\n", circ)
	}

	if *listen != "" || *connect != "" {
		runOverTCP(cfg, envCfg, circ, genBits, evlBits, *commit, *listen, *connect)
		return
	}

	connGen, connEvl := p2p.Pipe()

	errCh := make(chan error, 2)
	go func() {
		errCh <- runGenerator(cfg, envCfg, circ, genBits, *commit, connGen)
	}()
	go func() {
		errCh <- runEvaluator(cfg, circ, evlBits, connEvl)
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			log.Fatal(err)
		}
	}

	timing.Print(connGen.Stats.Add(connEvl.Stats))
}

// runOverTCP drives a single side of the protocol over a real TCP
// connection via p2p.Network, the same peer-to-peer plumbing used
// for setting up RSA base OT between peers. -listen runs the
// generator side, -connect the evaluator side; both must be invoked
// against the same circuit and inputs for their respective roles.
func runOverTCP(cfg garble.Config, envCfg *env.Config, circ *circuit.Circuit,
	genBits, evlBits []byte, commit bool, listen, connect string) {

	if listen != "" {
		// The generator side only listens: its Network's acceptLoop
		// registers the evaluator's inbound connection under whatever
		// peer ID the evaluator announces.
		nw, err := p2p.NewNetwork(listen, 0)
		if err != nil {
			log.Fatal(err)
		}
		defer nw.Close()
		conn := waitForPeer(nw, 1)
		if err := runGenerator(cfg, envCfg, circ, genBits, commit, conn); err != nil {
			log.Fatal(err)
		}
		timing.Print(conn.Stats)
		return
	}

	// The evaluator side dials out to the generator's listen address.
	// Its own listener is never connected to; it exists only because
	// Network always runs one.
	nw, err := p2p.NewNetwork("127.0.0.1:0", 1)
	if err != nil {
		log.Fatal(err)
	}
	defer nw.Close()
	if err := nw.AddPeer(connect, 0); err != nil {
		log.Fatal(err)
	}
	peer, ok := nw.Peer(0)
	if !ok {
		log.Fatal("generator peer not registered after AddPeer returned")
	}
	conn := peer.Conn()
	if err := runEvaluator(cfg, circ, evlBits, conn); err != nil {
		log.Fatal(err)
	}
	timing.Print(conn.Stats)
}

func waitForPeer(nw *p2p.Network, id int) *p2p.Conn {
	for {
		if peer, ok := nw.Peer(id); ok {
			return peer.Conn()
		}
		time.Sleep(20 * time.Millisecond)
	}
}

var (
	verbose bool
	debug   bool
	timing  = circuit.NewTiming()
)

func loadCircuit(path string) (*circuit.Circuit, error) {
	if path == "" {
		return circuit.Parse(strings.NewReader(fullAdder))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return circuit.Parse(f)
}

func parseBits(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	bits := make([]byte, len(parts))
	for i, p := range parts {
		switch strings.TrimSpace(p) {
		case "0":
			bits[i] = 0
		case "1":
			bits[i] = 1
		default:
			return nil, fmt.Errorf("bit %d: %q is not 0 or 1", i, p)
		}
	}
	return bits, nil
}

// toOTLabel and fromOTLabel adapt between garble.Label, whose Lsb is
// the point-and-permute bit, and ot.Label, whose D0/D1 fields have the
// identical 128-bit layout but no such convention of their own; the
// conversion is a bit pattern copy, nothing more.
func toOTLabel(l garble.Label) ot.Label {
	return ot.Label{D0: l.D0, D1: l.D1}
}

func fromOTLabel(l ot.Label) garble.Label {
	return garble.Label{D0: l.D0, D1: l.D1}
}

func runGenerator(cfg garble.Config, envCfg *env.Config, circ *circuit.Circuit,
	genBits []byte, commitMode bool, conn *p2p.Conn) error {

	rnd := envCfg.GetRandom()
	seed := make([]byte, 32)
	if _, err := rnd.Read(seed); err != nil {
		return err
	}

	var gen *garble.Generator
	var err error
	if commitMode {
		gen, err = garble.NewCommitGenerator(cfg, circ, genBits, genBits, seed, rnd)
	} else {
		gen, err = garble.NewGenerator(cfg, circ, genBits, genBits, seed, rnd)
	}
	if err != nil {
		return err
	}

	timing.Sample("Garble", nil)

	// Phase 1: garble every GEN_INP and EVL_INP wire up front, so the
	// evaluator's input labels can be delivered by oblivious transfer
	// before any garbled-gate ciphertext is exchanged.
	genInpOut := make(map[int][]byte)
	var otWires []ot.Wire
	for i, g := range circ.Gates {
		switch g.Kind {
		case circuit.GenInp:
			out, err := gen.NextGate(g)
			if err != nil {
				return err
			}
			genInpOut[i] = out
		case circuit.EvlInp:
			out, err := gen.NextGate(g)
			if err != nil {
				return err
			}
			K := cfg.ByteLen()
			z0 := garble.LabelFromBytes(out[:K])
			z1 := garble.LabelFromBytes(out[K:])
			otWires = append(otWires, ot.Wire{L0: toOTLabel(z0), L1: toOTLabel(z1)})
		}
	}

	timing.Sample("OT", []string{fmt.Sprintf("%d wires", len(otWires))})
	co := ot.NewCO()
	if err := co.InitSender(conn); err != nil {
		return err
	}
	if len(otWires) > 0 {
		if err := co.Send(otWires); err != nil {
			return err
		}
	}

	// The active decommitment for every generator input wire travels
	// out of band, never folded into the garbled-gate stream the
	// running hash covers: it is what lets the evaluator recover her
	// active label and what PassCheck and GenNextGenInpCom/
	// EvlNextGenInpCom later verify against.
	if err := conn.SendData(genBits); err != nil {
		return err
	}
	decommits := gen.GenInpDecommitments()
	var decommitBuf []byte
	for _, d := range decommits {
		decommitBuf = append(decommitBuf, d...)
	}
	if err := conn.SendData(decommitBuf); err != nil {
		return err
	}

	timing.Sample("Transfer", nil)
	for i, g := range circ.Gates {
		if g.Kind == circuit.GenInp {
			if err := conn.SendData(genInpOut[i]); err != nil {
				return err
			}
			continue
		}
		if g.Kind == circuit.EvlInp {
			continue
		}
		out, err := gen.NextGate(g)
		if err != nil {
			return err
		}
		if err := conn.SendData(out); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}

	n, err := conn.ReceiveUint32()
	if err != nil {
		return err
	}
	recv := make(map[circuit.Wire][]byte, n)
	for i := 0; i < n; i++ {
		wireID, err := conn.ReceiveUint32()
		if err != nil {
			return err
		}
		data, err := conn.ReceiveData()
		if err != nil {
			return err
		}
		recv[circuit.Wire(wireID)] = data
	}

	genOut, err := gen.DecodeGenOutputs(recv)
	if err != nil {
		return err
	}
	for wire, bit := range genOut {
		fmt.Printf("gen_out %s = %d\n", wire, bit)
	}
	if debug {
		fmt.Printf("generator hash: %x\n", gen.Hash().Sum())
	}
	return nil
}

func runEvaluator(cfg garble.Config, circ *circuit.Circuit, evlBits []byte,
	conn *p2p.Conn) error {

	co := ot.NewCO()
	if err := co.InitReceiver(conn); err != nil {
		return err
	}
	flags := make([]bool, len(evlBits))
	for i, b := range evlBits {
		flags[i] = b == 1
	}
	otResults := make([]ot.Label, len(evlBits))
	if len(evlBits) > 0 {
		if err := co.Receive(flags, otResults); err != nil {
			return err
		}
	}
	evlInputLabels := make([][]byte, len(otResults))
	for i, l := range otResults {
		evlInputLabels[i] = fromOTLabel(l).Bytes(cfg.ByteLen())
	}

	genInpMask, err := conn.ReceiveData()
	if err != nil {
		return err
	}
	decommitBuf, err := conn.ReceiveData()
	if err != nil {
		return err
	}
	decommitWidth := 2 * cfg.ByteLen()
	genInpDecommit := make([]garble.Decommitment, circ.GenInpCount)
	for i := range genInpDecommit {
		genInpDecommit[i] = garble.Decommitment(
			decommitBuf[i*decommitWidth : (i+1)*decommitWidth])
	}

	ev, err := garble.NewEvaluator(cfg, circ, evlInputLabels, genInpMask, genInpDecommit)
	if err != nil {
		return err
	}

	for _, g := range circ.Gates {
		var in []byte
		switch g.Kind {
		case circuit.GenInp:
			data, err := conn.ReceiveData()
			if err != nil {
				return err
			}
			in = data
		case circuit.EvlInp:
			in = nil
		default:
			data, err := conn.ReceiveData()
			if err != nil {
				return err
			}
			in = data
		}
		if err := ev.NextGate(g, in); err != nil {
			return err
		}
	}

	genOutLabels := ev.GenOutLabels()
	if err := conn.SendUint32(len(genOutLabels)); err != nil {
		return err
	}
	for wire, data := range genOutLabels {
		if err := conn.SendUint32(int(wire)); err != nil {
			return err
		}
		if err := conn.SendData(data); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}

	for wire, bit := range ev.EvlOutputs() {
		fmt.Printf("evl_out %s = %d\n", wire, bit)
	}
	if debug {
		fmt.Printf("evaluator hash: %x\n", ev.Hash().Sum())
	}
	return nil
}
