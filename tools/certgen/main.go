// Package main generates a development Certificate Authority and a server
// certificate signed by it, writing them to files under the "certs" directory.
// The server reads certs/server.{crt,key} via -tls-cert/-tls-key and the
// interactive client trusts certs/ca.crt via -ca.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/signupform/internal/certgen"
)

const (
	caValidity     = 10 * 365 * 24 * time.Hour
	serverValidity = 365 * 24 * time.Hour
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, splitHosts(*hosts)); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("✅ Certificates generated into ./%s\n", *dir)
}

func run(dir string, hosts []string) error {
	caPEM, caKeyPEM, err := certgen.GenerateCA("Signup Dev CA", caValidity)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(dir, "ca", caPEM, caKeyPEM); err != nil {
		return err
	}

	caCert, caKey, err := certgen.LoadCACredentials(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		return err
	}

	certPEM, keyPEM, err := certgen.GenerateServerCertificate(hosts, caCert, caKey, serverValidity)
	if err != nil {
		return err
	}
	return certgen.WritePair(dir, "server", certPEM, keyPEM)
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
