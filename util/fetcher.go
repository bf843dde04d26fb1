// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
)

// StatusError - non-200 response from a remote server
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status: %d %q on: %q", e.StatusCode, e.Status, e.URL)
}

// FetchJSON - fetch a JSON response from an HTTP request and decode
// it
func FetchJSON(ctx context.Context, client *http.Client, url string, reply interface{}) error {
	request, err := http.NewRequest("GET", url, nil)
	if nil != err {
		return err
	}
	request = request.WithContext(ctx)
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if nil != err {
		return err
	}
	defer response.Body.Close()
	body, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return err
	}

	if http.StatusOK != response.StatusCode {
		return &StatusError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			URL:        url,
		}
	}
	return json.Unmarshal(body, reply)
}
