// gcs2gdrive copies a Google Cloud Storage bucket into a Google Drive
// folder.
package main

import "github.com/kousiktn/gcs2gdrive/cmd"

func main() {
	cmd.Main()
}
