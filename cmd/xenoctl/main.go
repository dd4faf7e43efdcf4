package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

const tokenEnv = "XENO_RPC_TOKEN"

func main() {
	rpcURL := flag.String("rpc", "http://127.0.0.1:8645", "JSON-RPC endpoint")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var (
		result json.RawMessage
		err    error
	)
	switch args[0] {
	case "stats":
		result, err = call(*rpcURL, "staking_stats", nil, false)
	case "position":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		itemID, parseErr := strconv.ParseUint(args[1], 10, 64)
		if parseErr != nil {
			fail(parseErr)
		}
		result, err = call(*rpcURL, "staking_position", map[string]interface{}{"itemId": itemID}, false)
	case "pending":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		result, err = call(*rpcURL, "mint_pending", map[string]interface{}{"requester": args[1]}, false)
	case "bind-seed":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		result, err = call(*rpcURL, "mint_bindSeed", map[string]interface{}{"seed": args[1]}, true)
	case "pause", "unpause":
		result, err = call(*rpcURL, "admin_setPaused", map[string]interface{}{"enabled": args[0] == "pause"}, true)
	case "rescue-on", "rescue-off":
		result, err = call(*rpcURL, "admin_setRescueMode", map[string]interface{}{"enabled": args[0] == "rescue-on"}, true)
	case "intake-open", "intake-close":
		result, err = call(*rpcURL, "admin_setMintIntake", map[string]interface{}{"enabled": args[0] == "intake-open"}, true)
	case "force-clear":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		result, err = call(*rpcURL, "admin_forceClear", map[string]interface{}{"requester": args[1]}, true)
	case "force-reveal":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		result, err = call(*rpcURL, "admin_forceReveal", map[string]interface{}{"requester": args[1]}, true)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
	var pretty bytes.Buffer
	if indentErr := json.Indent(&pretty, result, "", "  "); indentErr != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(pretty.String())
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: xenoctl [-rpc URL] <command>

commands:
  stats                     staking ledger summary
  position <itemId>         staked item details
  pending <address>         pending mint commit for an address
  bind-seed <hex32>         bind the oracle seed to the open slot (token)
  pause | unpause           toggle the staking pause flag (token)
  rescue-on | rescue-off    toggle rescue mode (token)
  intake-open | intake-close  toggle mint intake (token)
  force-clear <address>     drop a stuck commit (token)
  force-reveal <address>    reveal on behalf of a requester (token)

privileged commands read the bearer token from XENO_RPC_TOKEN.`)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "xenoctl:", err)
	os.Exit(1)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(url, method string, params map[string]interface{}, privileged bool) (json.RawMessage, error) {
	reqParams := []interface{}{}
	if params != nil {
		reqParams = append(reqParams, params)
	}
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: reqParams, ID: 1})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if privileged {
		token := strings.TrimSpace(os.Getenv(tokenEnv))
		if token == "" {
			return nil, fmt.Errorf("%s not set", tokenEnv)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	return decoded.Result, nil
}
