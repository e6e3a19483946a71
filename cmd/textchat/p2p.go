package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/z0r1k/textchat-acc-pack/internal/adapters/rtc"
	"github.com/z0r1k/textchat-acc-pack/internal/core"
)

// p2pCredentials stand in for relay credentials; the data channel transport
// never looks at them.
var p2pCredentials = core.Credentials{APIKey: "p2p", SessionID: "p2p", Token: "p2p"}

// dialP2P runs a copy/paste offer-answer exchange over in and out and returns
// a transport bound to the resulting peer connection.
func dialP2P(ctx context.Context, role string, in *bufio.Reader, out io.Writer) (*rtc.DataChannelTransport, *rtc.WebRTCConnection, error) {
	pc, err := rtc.NewWebRTCConnection(rtc.DefaultWebRTCConfig(), role)
	if err != nil {
		return nil, nil, err
	}
	// The channel must exist before the offer so its SCTP transport is negotiated.
	dc, err := pc.OpenChatChannel(ctx)
	if err != nil {
		pc.Close()
		return nil, nil, err
	}

	switch role {
	case "offer":
		offer, err := pc.CreateOffer()
		if err != nil {
			pc.Close()
			return nil, nil, err
		}
		fmt.Fprintf(out, "offer (send to your peer):\n%s\npaste answer:\n", encodeSDP(offer))
		answer, err := readSDP(in)
		if err != nil {
			pc.Close()
			return nil, nil, err
		}
		if err := pc.ApplyAnswer(answer); err != nil {
			pc.Close()
			return nil, nil, err
		}
	case "answer":
		fmt.Fprintln(out, "paste offer:")
		offer, err := readSDP(in)
		if err != nil {
			pc.Close()
			return nil, nil, err
		}
		answer, err := pc.ApplyOfferAndCreateAnswer(offer)
		if err != nil {
			pc.Close()
			return nil, nil, err
		}
		fmt.Fprintf(out, "answer (send to your peer):\n%s\n", encodeSDP(answer))
	default:
		pc.Close()
		return nil, nil, fmt.Errorf("unknown p2p role %q", role)
	}

	used := false
	tr := rtc.NewDataChannelTransport(func(context.Context) (rtc.DataChannel, error) {
		if used {
			return nil, fmt.Errorf("p2p channel already used")
		}
		used = true
		return dc, nil
	})
	return tr, pc, nil
}

func encodeSDP(d *webrtc.SessionDescription) string {
	b, _ := json.Marshal(d)
	return base64.StdEncoding.EncodeToString(b)
}

func readSDP(in *bufio.Reader) (webrtc.SessionDescription, error) {
	var d webrtc.SessionDescription
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return d, err
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(line))
	if err != nil {
		return d, fmt.Errorf("decode sdp: %w", err)
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("decode sdp: %w", err)
	}
	return d, nil
}
